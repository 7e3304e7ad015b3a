package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/emrlaunch/emrlaunch/internal/store"
)

var storeGetJSON bool

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage profiles and cluster configurations",
	Long: `Read and write the documents the backing functions load at execution
time. KIND is "profile" or "cluster".`,
}

var storeListCmd = &cobra.Command{
	Use:   "list KIND [NAMESPACE]",
	Short: "List stored documents",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := store.ParseKind(args[0])
		if err != nil {
			return err
		}
		namespace := "default"
		if len(args) == 2 {
			namespace = args[1]
		}
		return withStore(func(ctx context.Context, s store.Store) error {
			names, err := s.List(ctx, kind, namespace)
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Printf("%s/%s\n", namespace, n)
			}
			return nil
		})
	},
}

var storeGetCmd = &cobra.Command{
	Use:   "get KIND NAMESPACE NAME",
	Short: "Print a stored document",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := storeKey(args)
		if err != nil {
			return err
		}
		return withStore(func(ctx context.Context, s store.Store) error {
			doc, err := s.Get(ctx, key)
			if err != nil {
				return err
			}
			if storeGetJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(doc)
			}
			out, err := yaml.Marshal(doc)
			if err != nil {
				return fmt.Errorf("encoding %s: %w", key, err)
			}
			_, err = os.Stdout.Write(out)
			return err
		})
	},
}

var storePutCmd = &cobra.Command{
	Use:   "put KIND NAMESPACE NAME FILE",
	Short: "Validate and store a YAML or JSON document",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := storeKey(args)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[3])
		if err != nil {
			return fmt.Errorf("reading document: %w", err)
		}
		doc, err := store.ParseDocument(data)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", args[3], err)
		}

		eng, err := newEngine()
		if err != nil {
			return err
		}
		ctx := context.Background()
		defer eng.Close(ctx)

		ignored, err := eng.PutDocument(ctx, key, doc)
		if err != nil {
			return err
		}
		fmt.Printf("Stored %s\n", key)
		for _, f := range ignored {
			fmt.Printf("  %s is fixed by the launch task; the stored value is ignored\n", f)
		}
		return nil
	},
}

func storeKey(args []string) (store.Key, error) {
	kind, err := store.ParseKind(args[0])
	if err != nil {
		return store.Key{}, err
	}
	key := store.Key{Kind: kind, Namespace: args[1], Name: args[2]}
	return key, key.Validate()
}

func withStore(fn func(ctx context.Context, s store.Store) error) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	ctx := context.Background()
	defer eng.Close(ctx)

	s, err := eng.OpenStore(ctx)
	if err != nil {
		return err
	}
	return fn(ctx, s)
}

func init() {
	storeGetCmd.Flags().BoolVar(&storeGetJSON, "json", false, "print JSON instead of YAML")
	storeCmd.AddCommand(storeListCmd, storeGetCmd, storePutCmd)
	rootCmd.AddCommand(storeCmd)
}
