package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/c3foc/hagrid/internal/domain"
)

// NewCodeCommand creates the access code command group.
func NewCodeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "code",
		Short: "Manage counter access codes",
	}

	cmd.AddCommand(newCodeCreateCommand(rootOpts))

	return cmd
}

func newCodeCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		code         string
		name         string
		asQueue      bool
		productIDs   []string
		sizeGroupIDs []string
		sizeIDs      []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an access code, optionally scoped to parts of the catalog",
		Long: `Create an access code, optionally scoped to parts of the catalog.

Without --code a random URL-safe token is generated. Scope flags may be
repeated; a code with no scope flags covers the whole catalog.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer rt.close()

			if code == "" {
				code = domain.NewAccessCodeToken()
				if code == "" {
					return fmt.Errorf("failed to generate access code token")
				}
			}

			ac := domain.AccessCode{
				ID:      uuid.NewString(),
				Code:    code,
				Name:    name,
				AsQueue: asQueue,
				Scope: domain.Scope{
					ProductIDs:   productIDs,
					SizeGroupIDs: sizeGroupIDs,
					SizeIDs:      sizeIDs,
				},
			}
			if err := rt.repo.CreateAccessCode(cmd.Context(), ac); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created access code: %s\n", ac.Code)
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "the code itself; generated when omitted")
	cmd.Flags().StringVar(&name, "name", "", "label shown in admin views")
	cmd.Flags().BoolVar(&asQueue, "queue", false, "hand out one assignment at a time")
	cmd.Flags().StringArrayVar(&productIDs, "product", nil, "restrict to a product id (repeatable)")
	cmd.Flags().StringArrayVar(&sizeGroupIDs, "size-group", nil, "restrict to a size group id (repeatable)")
	cmd.Flags().StringArrayVar(&sizeIDs, "size", nil, "restrict to a size id (repeatable)")

	return cmd
}
