package cli

import (
	"fmt"
	"os"

	"escape-room-service/internal/content"
	"escape-room-service/internal/domain"
	"github.com/spf13/cobra"
)

// NewCatalogCmd validates a catalog against the configured rules and lists its rooms.
func NewCatalogCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Validate and describe a room catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			catalog, err := readCatalog(file, cfg.Game)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "catalog %q: %d rooms\n", catalog.ID, len(catalog.Rooms))
			for _, room := range catalog.Rooms {
				fmt.Fprintf(out, "  %d. %s (%s): %d questions\n", room.ID, room.Name, room.Slug, len(room.Questions))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "catalog YAML file (defaults to the embedded catalog)")
	return cmd
}

// readCatalog parses file, or the embedded catalog when file is empty, and validates it.
func readCatalog(file string, rules domain.Rules) (domain.Catalog, error) {
	var (
		catalog domain.Catalog
		err     error
	)
	if file == "" {
		catalog, err = content.Default()
	} else {
		var data []byte
		data, err = os.ReadFile(file)
		if err != nil {
			return domain.Catalog{}, err
		}
		catalog, err = content.Parse(data)
	}
	if err != nil {
		return domain.Catalog{}, err
	}
	if err := catalog.Validate(rules); err != nil {
		return domain.Catalog{}, err
	}
	return catalog, nil
}
