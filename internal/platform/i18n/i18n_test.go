package i18n

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmbeddedLocales(t *testing.T) {
	b, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	locales := b.Locales()
	if len(locales) != 2 || locales[0] != BaseLocale || locales[1] != "pt-BR" {
		t.Fatalf("unexpected locales %v", locales)
	}
	if _, ok := b.Message("pt-BR", "verdict.Ok"); !ok {
		t.Fatal("expected pt-BR verdict message")
	}
}

func TestLoadFromFSRejectsDuplicateKeysAcrossNamespaces(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "locales/en-US/errors.yaml"), "locale: \"en-US\"\nnamespace: \"errors\"\nmessages:\n  \"a.key\": \"a\"\n")
	mustWriteFile(t, filepath.Join(dir, "locales/en-US/verdicts.yaml"), "locale: \"en-US\"\nnamespace: \"verdicts\"\nmessages:\n  \"a.key\": \"b\"\n")
	if _, err := LoadFromFS(os.DirFS(dir)); err == nil {
		t.Fatal("expected duplicate key error")
	}
}

func TestLoadFromFSRejectsMissingTranslations(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "locales/en-US/errors.yaml"), "locale: \"en-US\"\nnamespace: \"errors\"\nmessages:\n  \"a\": \"a\"\n  \"b\": \"b\"\n")
	mustWriteFile(t, filepath.Join(dir, "locales/pt-BR/errors.yaml"), "locale: \"pt-BR\"\nnamespace: \"errors\"\nmessages:\n  \"a\": \"a\"\n")
	if _, err := LoadFromFS(os.DirFS(dir)); err == nil {
		t.Fatal("expected missing key error")
	}
}

func TestLoadFromFSRejectsMismatchedLocale(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "locales/en-US/errors.yaml"), "locale: \"pt-BR\"\nnamespace: \"errors\"\nmessages:\n  \"a\": \"a\"\n")
	if _, err := LoadFromFS(os.DirFS(dir)); err == nil {
		t.Fatal("expected locale mismatch error")
	}
}

func TestParseCatalogFileErrors(t *testing.T) {
	bad := []string{
		"messages:\n  \"a\": \"b\"\n",
		"locale: \"en-US\"\nnamespace: \"x\"\nmessages:\n  a: \"b\"\n",
		"locale: \"en-US\"\nnamespace: \"x\"\nmessages:\n  \"a\" \"b\"\n",
		"locale: \"en-US\"\nnamespace: \"x\"\nmessages:\n",
		"locale: en-US\n",
	}
	for _, data := range bad {
		if _, err := parseCatalogFile([]byte(data)); err == nil {
			t.Fatalf("expected error for %q", data)
		}
	}
}

func TestMatch(t *testing.T) {
	l := Default()
	tests := map[string]string{
		"":               BaseLocale,
		"pt-BR":          "pt-BR",
		"pt":             "pt-BR",
		"fr-FR,pt;q=0.8": "pt-BR",
		"en-GB":          BaseLocale,
		"de":             BaseLocale,
		"!!":             BaseLocale,
	}
	for accept, want := range tests {
		if got := l.Match(accept); got != want {
			t.Fatalf("Match(%q): expected %s, got %s", accept, want, got)
		}
	}
}

func TestFormat(t *testing.T) {
	l := Default()
	if got := l.Format("pt-BR", "PIECE_NOT_FOUND", map[string]string{"PieceID": "7"}); got != "A peça 7 não existe" {
		t.Fatalf("unexpected pt-BR message %q", got)
	}
	if got := l.Format("en-US", "COMMAND_LIMIT_EXCEEDED", map[string]string{"Limit": "10"}); got != "A match may contain at most 10 commands" {
		t.Fatalf("unexpected en-US message %q", got)
	}
	if got := l.Format("en-US", "INVALID_INPUT", nil); got != "The request is invalid: " {
		t.Fatalf("expected missing data to render empty, got %q", got)
	}
	if got := l.Format("fr", "verdict.Ok", nil); got != "The claimed score was verified" {
		t.Fatalf("expected base locale fallback, got %q", got)
	}
	if got := l.Format("en-US", "NO_SUCH_KEY", nil); got != "NO_SUCH_KEY" {
		t.Fatalf("expected key fallback, got %q", got)
	}
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
