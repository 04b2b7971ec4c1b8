package main

import (
	"fmt"

	"chirp-go/internal/bootstrap"
	"chirp-go/internal/infra/database"
	infraES "chirp-go/internal/infra/elasticsearch"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the Elasticsearch posts index from the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := infraES.Init(&cfg.Elasticsearch); err != nil {
			return err
		}
		defer infraES.Close()

		postsIndex := cfg.Elasticsearch.PostsIndex()
		if err := infraES.InitIndexes(postsIndex); err != nil {
			return err
		}

		services := bootstrap.NewServices(bootstrap.Deps{
			DB:    database.Get(),
			Index: infraES.NewPostIndex(postsIndex),
		})
		success, failed, err := services.Search.ReindexAll(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "reindexed %d posts into %s (%d failed)\n", success, postsIndex, failed)
		return nil
	},
}
