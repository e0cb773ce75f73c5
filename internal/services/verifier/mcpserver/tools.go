package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tidwall/sjson"

	"github.com/louisbranch/renovation-rumble/internal/services/verifier/storage"
)

// VerifyMatchInput represents the MCP tool input for verifying one match.
type VerifyMatchInput struct {
	Match        map[string]any   `json:"match" jsonschema:"match configuration with boardWidth, boardHeight, startingPieces and wheel"`
	ClaimedScore uint32           `json:"claimedScore" jsonschema:"score the client reported"`
	Commands     []map[string]any `json:"commands" jsonschema:"recorded commands, each tagged by a type field such as Place, Grow or Shrink"`
	Grant        string           `json:"grant,omitempty" jsonschema:"optional signed match grant"`
	Locale       string           `json:"locale,omitempty" jsonschema:"optional locale for the localized message, e.g. pt-BR"`
}

// VerifyMatchResult represents the verdict for a match.
type VerifyMatchResult struct {
	Status           string `json:"status" jsonschema:"Ok, InvalidInput, SimulationError, DidNotEnd or ScoreMismatch"`
	Message          string `json:"message" jsonschema:"diagnostic message"`
	LocalizedMessage string `json:"localizedMessage" jsonschema:"user-facing message in the requested locale"`
	ComputedScore    uint32 `json:"computedScore" jsonschema:"score from the replay"`
	EndReason        string `json:"endReason" jsonschema:"why the match ended"`
	CommandIndex     int    `json:"commandIndex" jsonschema:"index of the deciding command, -1 when none"`
}

// GetPieceInput represents the MCP tool input for reading a catalog piece.
type GetPieceInput struct {
	PieceID int `json:"pieceId" jsonschema:"catalog piece id, 0 to 65535"`
}

// PieceResult represents one catalog piece.
type PieceResult struct {
	PieceID         uint16  `json:"pieceId" jsonschema:"catalog piece id"`
	StyleID         uint16  `json:"styleId" jsonschema:"cosmetic style id"`
	Width           uint8   `json:"width" jsonschema:"shape width"`
	Height          uint8   `json:"height" jsonschema:"shape height"`
	Cells           int     `json:"cells" jsonschema:"number of filled cells"`
	DefaultContents [][]int `json:"defaultContents" jsonschema:"rows of 0/1 cells, top row first"`
}

// ListPiecesInput represents the MCP tool input for paging the catalog.
type ListPiecesInput struct {
	PageSize  int    `json:"pageSize,omitempty" jsonschema:"maximum pieces to return"`
	PageToken string `json:"pageToken,omitempty" jsonschema:"token from a previous page"`
	Filter    string `json:"filter,omitempty" jsonschema:"filter over piece_id, style_id, width, height and cells, e.g. width >= 2 AND cells = 4"`
}

// ListPiecesResult represents one page of catalog pieces.
type ListPiecesResult struct {
	Pieces        []PieceResult `json:"pieces" jsonschema:"pieces ordered by id"`
	NextPageToken string        `json:"nextPageToken,omitempty" jsonschema:"token for the next page, empty on the last one"`
}

// VerifyMatchTool defines the MCP tool schema for verifying a match.
func VerifyMatchTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "verify_match",
		Description: "Replays a recorded match against the piece catalog and checks the claimed score",
	}
}

// GetPieceTool defines the MCP tool schema for reading a catalog piece.
func GetPieceTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_piece",
		Description: "Returns one piece definition from the catalog",
	}
}

// ListPiecesTool defines the MCP tool schema for paging the catalog.
func ListPiecesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_pieces",
		Description: "Lists catalog pieces with optional filtering and paging",
	}
}

// VerifyMatchHandler executes a match verification.
func VerifyMatchHandler(backend Backend) mcp.ToolHandlerFor[VerifyMatchInput, VerifyMatchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input VerifyMatchInput) (*mcp.CallToolResult, VerifyMatchResult, error) {
		body, err := verifyBody(input)
		if err != nil {
			return nil, VerifyMatchResult{}, err
		}
		runCtx, cancel := context.WithTimeout(ctx, toolCallTimeout)
		defer cancel()
		result, err := backend.Verify(runCtx, body, input.Locale)
		if err != nil {
			return nil, VerifyMatchResult{}, fmt.Errorf("verify match failed: %w", err)
		}
		return nil, result, nil
	}
}

// GetPieceHandler executes a catalog piece lookup.
func GetPieceHandler(backend Backend) mcp.ToolHandlerFor[GetPieceInput, PieceResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GetPieceInput) (*mcp.CallToolResult, PieceResult, error) {
		if input.PieceID < 0 || input.PieceID > 65535 {
			return nil, PieceResult{}, fmt.Errorf("pieceId %d is out of range", input.PieceID)
		}
		runCtx, cancel := context.WithTimeout(ctx, toolCallTimeout)
		defer cancel()
		piece, err := backend.GetPiece(runCtx, uint16(input.PieceID))
		if err != nil {
			return nil, PieceResult{}, fmt.Errorf("get piece failed: %w", err)
		}
		return nil, piece, nil
	}
}

// ListPiecesHandler executes a catalog page read.
func ListPiecesHandler(backend Backend) mcp.ToolHandlerFor[ListPiecesInput, ListPiecesResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ListPiecesInput) (*mcp.CallToolResult, ListPiecesResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, toolCallTimeout)
		defer cancel()
		page, err := backend.ListPieces(runCtx, storage.PieceQuery{
			PageSize:  input.PageSize,
			PageToken: input.PageToken,
			Filter:    input.Filter,
		})
		if err != nil {
			return nil, ListPiecesResult{}, fmt.Errorf("list pieces failed: %w", err)
		}
		if page.Pieces == nil {
			page.Pieces = []PieceResult{}
		}
		return nil, page, nil
	}
}

// verifyBody writes the tool input as a verify request body.
func verifyBody(input VerifyMatchInput) ([]byte, error) {
	body := []byte("{}")
	var err error
	if input.Match != nil {
		if body, err = sjson.SetBytes(body, "match", input.Match); err != nil {
			return nil, fmt.Errorf("encode match: %w", err)
		}
	}
	if body, err = sjson.SetBytes(body, "claimedScore", input.ClaimedScore); err != nil {
		return nil, fmt.Errorf("encode claimed score: %w", err)
	}
	if input.Commands != nil {
		if body, err = sjson.SetBytes(body, "commands", input.Commands); err != nil {
			return nil, fmt.Errorf("encode commands: %w", err)
		}
	}
	if input.Grant != "" {
		if body, err = sjson.SetBytes(body, "grant", input.Grant); err != nil {
			return nil, fmt.Errorf("encode grant: %w", err)
		}
	}
	return body, nil
}
