package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/papersim/internal/pdf"
)

var (
	encodePDF        string
	encodeShowVector bool
)

func init() {
	rootCmd.AddCommand(encodeCmd)

	encodeCmd.Flags().StringVar(&encodePDF, "pdf", "", "Read the arXiv ID from a downloaded PDF instead of an argument")
	encodeCmd.Flags().BoolVar(&encodeShowVector, "vector", false, "Include the full embedding vector in the output")
}

// EncodeResponse is the response for the encode command.
type EncodeResponse struct {
	ID         string    `json:"id"`
	Model      string    `json:"model"`
	Dimensions int       `json:"dimensions"`
	Vector     []float32 `json:"vector,omitempty"`
}

var encodeCmd = &cobra.Command{
	Use:   "encode [arxiv-id]",
	Short: "Embed one paper's title and abstract",
	Long: `Fetch a paper's metadata from arXiv and embed "<title>. <abstract>".

The identifier may be a bare arXiv ID (2106.15928, hep-th/9901001),
an arXiv: prefixed ID, or an abs/pdf URL. With --pdf, the ID is read from
the arXiv stamp on the first pages of a local PDF.

The embedding is printed, not stored; use 'papersim index add' to keep it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEncode,
}

func runEncode(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	paperID := resolvePaperArg(args, encodePDF)

	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	provider := mustNewProvider(ctx, cfg)

	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	emb, err := newEncoder(cfg, db).Encode(ctx, paperID, provider)
	if err != nil {
		exitWithErr(err, "encoding paper")
	}

	resp := EncodeResponse{
		ID:         paperID,
		Model:      provider.ModelName(),
		Dimensions: emb.Dimensions(),
	}
	if encodeShowVector {
		resp.Vector = emb.Vector
	}

	if humanOutput {
		fmt.Printf("Encoded %s with %s (%d dimensions)\n", paperID, resp.Model, resp.Dimensions)
		if ref, err := db.GetByID(paperID); err == nil && ref != nil {
			fmt.Printf("  %s\n", truncateString(ref.Title, DetailTitleMaxLen))
			if len(ref.Authors) > 0 {
				fmt.Printf("  %s", ref.Authors[0].FullName())
				if len(ref.Authors) > 1 {
					fmt.Print(" et al.")
				}
				fmt.Println()
			}
		}
		if encodeShowVector {
			fmt.Println(emb.Vector)
		}
	} else {
		outputJSON(resp)
	}

	return nil
}

// resolvePaperArg returns the single paper ID from args, or reads it from pdfPath.
func resolvePaperArg(args []string, pdfPath string) string {
	switch {
	case pdfPath != "" && len(args) > 0:
		exitWithError(ExitError, "give either an arXiv ID or --pdf, not both")
	case pdfPath != "":
		id, err := pdf.ExtractArXivID(pdfPath)
		if err != nil {
			exitWithError(ExitDataError, "reading arXiv ID from PDF: %v", err)
		}
		return id
	case len(args) == 0:
		exitWithError(ExitError, "an arXiv ID or --pdf is required")
	}
	return args[0]
}
