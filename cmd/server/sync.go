package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Kamar-Folarin/listing-sync/internal/models"
)

var fullSync bool

var syncCmd = &cobra.Command{
	Use:   "sync [collection...]",
	Short: "Run one ingestion pass and exit",
	Long: `Runs a delta sync of the given collections (adverts when none is given).
With --full every listed record is fetched and stored without deduplication.`,
	ValidArgs: []string{string(models.CollectionAdverts), string(models.CollectionCategories)},
	RunE: func(cmd *cobra.Command, args []string) error {
		colls := []models.Collection{models.CollectionAdverts}
		if len(args) > 0 {
			colls = colls[:0]
			for _, arg := range args {
				coll, err := models.ParseCollection(arg)
				if err != nil {
					return err
				}
				colls = append(colls, coll)
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		a.refreshRate(ctx)

		for _, coll := range colls {
			var n int
			if fullSync {
				n, err = a.ingest.Ingest(ctx, coll)
			} else {
				n, err = a.ingest.SyncNew(ctx, coll)
			}
			if err != nil {
				return fmt.Errorf("sync %s: %w", coll, err)
			}
			a.logger.WithFields(logrus.Fields{
				"collection": coll,
				"inserted":   n,
				"full":       fullSync,
			}).Info("Sync finished")
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&fullSync, "full", false, "fetch and store every record instead of only new ones")
}
