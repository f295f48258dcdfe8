package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DonatoReis/lynx/internal/extract"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run extraction for the configured URL list and print the records",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		snapshot, err := st.Load(ctx)
		if err != nil {
			return err
		}

		urls := extract.ReadURLFile(cfg.Chat.URLsFile)
		extractor := extract.New(st, extract.Config{
			Timeout:       cfg.Fetch.Timeout(),
			RatePerSec:    cfg.Fetch.RatePerSec,
			TitleSelector: cfg.Fetch.TitleSelector,
			DescSelector:  cfg.Fetch.DescSelector,
		})

		hits := 0
		for _, url := range urls {
			if _, ok := snapshot[extract.Fingerprint(url)]; ok {
				hits++
			}
		}

		products := extractor.ExtractAll(ctx, urls, snapshot)
		for _, p := range products {
			fmt.Println(p)
		}
		fmt.Printf("\n%d products from %d urls (%d cache hits)\n", len(products), len(urls), hits)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
