package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"boardify-api/domain"
)

var boardsCmd = &cobra.Command{
	Use:   "boards",
	Short: "Inspect boards",
}

var boardsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List boards with ticket counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		return listBoards(ctx, cmd.OutOrStdout(), domain.NewBoardService(st))
	},
}

func init() {
	rootCmd.AddCommand(boardsCmd)
	boardsCmd.AddCommand(boardsListCmd)
}

type boardLister interface {
	ListBoards(ctx context.Context) ([]domain.BoardOverview, error)
}

func listBoards(ctx context.Context, w io.Writer, boards boardLister) error {
	overviews, err := boards.ListBoards(ctx)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(w, overviews)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTICKETS\tDONE")
	for _, b := range overviews {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", b.ID, b.Name, b.TicketsCount, b.DoneTicketsCount)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := sonic.ConfigStd.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
