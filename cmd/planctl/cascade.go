package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/arnavshah/capacity-planner-go/pkg/cascade"
	"github.com/arnavshah/capacity-planner-go/pkg/models"
	"github.com/spf13/cobra"
)

func newCascadeCmd() *cobra.Command {
	var (
		file       string
		root       string
		delta      int
		newDueDate string
	)

	cmd := &cobra.Command{
		Use:   "cascade",
		Short: "Show the due-date shifts that moving one item causes",
		RunE: func(cmd *cobra.Command, args []string) error {
			var input models.CascadeInput
			if err := readJSON(file, &input); err != nil {
				return err
			}
			if root != "" {
				input.RootID = root
			}
			if input.RootID == "" {
				return errors.New("--root is required")
			}

			switch {
			case cmd.Flags().Changed("delta"):
				input.DaysDelta = &delta
			case newDueDate != "":
				input.NewDueDate = &newDueDate
			}

			d, err := resolveDelta(input)
			if err != nil {
				return err
			}

			shifts, err := cascade.Propagate(cmd.Context(), input.RootID, d, cascade.NewMemoryGraph(input.Items))
			if err != nil {
				return err
			}
			if shifts == nil {
				shifts = []models.DateShift{}
			}
			return writeJSON(cmd.OutOrStdout(), models.CascadeResponse{
				RootID:    input.RootID,
				DaysDelta: d,
				Shifts:    shifts,
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "Cascade input JSON (- for stdin)")
	cmd.Flags().StringVar(&root, "root", "", "ID of the item whose date moved")
	cmd.Flags().IntVar(&delta, "delta", 0, "Calendar days to shift dependents by")
	cmd.Flags().StringVar(&newDueDate, "new-due-date", "", "New root due date YYYY-MM-DD; the delta is taken from the root's current date")
	cmd.MarkFlagsMutuallyExclusive("delta", "new-due-date")
	return cmd
}

func resolveDelta(input models.CascadeInput) (int, error) {
	if input.DaysDelta != nil {
		return *input.DaysDelta, nil
	}
	if input.NewDueDate == nil {
		return 0, errors.New("one of --delta or --new-due-date is required")
	}

	newDue, err := time.Parse(models.DateLayout, *input.NewDueDate)
	if err != nil {
		return 0, fmt.Errorf("invalid new due date %q", *input.NewDueDate)
	}
	for _, it := range input.Items {
		if it.ID == input.RootID {
			return cascade.Delta(it.DueDate, newDue), nil
		}
	}
	return 0, fmt.Errorf("root %s not found in items", input.RootID)
}
