package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyluth/quire/internal/catalog"
	"github.com/dyluth/quire/internal/printer"
	"github.com/dyluth/quire/internal/store"
	"github.com/dyluth/quire/pkg/codec"
	"github.com/dyluth/quire/pkg/datatype"
	"github.com/dyluth/quire/pkg/entity"
)

var (
	getAttrs bool
	getLang  string
)

var getCmd = &cobra.Command{
	Use:   "get <identifier>",
	Short: "Show a stored entity",
	Long: `Show a stored entity as its pretty-printed JSON document.

The identifier may be abbreviated to any unique prefix of at least 6
characters. With --attrs the attributes are listed one per line instead,
with their language and version; --lang restricts that list to one language
plus the language-neutral attributes.

Examples:
  quire get 3-5-00000000000000ff
  quire get 3-5-0000 --attrs --lang es`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	getCmd.Flags().BoolVar(&getAttrs, "attrs", false, "List attributes instead of printing the document")
	getCmd.Flags().StringVarP(&getLang, "lang", "l", "", "Only show this language (with --attrs)")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	repo, client, err := openRepository(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	id, err := resolveID(ctx, client, args[0])
	if err != nil {
		return err
	}

	if !getAttrs {
		err := catalog.Get(ctx, client, repo.Codec(), id.String(), printer.Out)
		if catalog.IsNotFound(err) {
			return printer.Error(err.Error(), "The entity was resolved but could not be fetched.",
				[]string{"It may have been deleted in the meantime. Try again."})
		}
		return err
	}

	e, err := repo.Load(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return printer.Error(fmt.Sprintf("entity '%s' not found", id), "The entity was resolved but could not be fetched.", nil)
		}
		return err
	}
	return printAttributes(repo.Codec(), e, getLang)
}

// printAttributes lists every attribute of e, or only those in lang and the
// wildcard snapshot when lang is set.
func printAttributes(c *codec.Codec, e *entity.Entity, lang string) error {
	var only datatype.Lang
	if lang != "" {
		parsed, err := datatype.ParseLang(lang)
		if err != nil {
			return printer.Error("invalid language", err.Error(), nil)
		}
		only = parsed
	}

	id, _ := e.Identifier()
	printer.Printf("%s  type=%d  revision=%s\n\n", id, e.EntityType(), e.Revision())

	for _, l := range e.Languages() {
		if only != "" && l != only && !l.IsWildcard() {
			continue
		}
		s, _ := e.Lookup(l)
		for _, key := range s.Keys() {
			raw, _ := s.Get(key)
			v, err := c.DecodeRaw(key, raw, l)
			if err != nil {
				printer.Attribute(key, string(l), raw, 0)
				continue
			}
			printer.Attribute(key, string(l), display(v), v.Version())
		}
		for _, key := range s.DeletedKeys() {
			printer.Deleted(key, string(l))
		}
	}
	return nil
}

// display renders a value for humans, using the formatted form where the
// kind has one.
func display(v datatype.Value) string {
	raw, err := v.Get(datatype.ReadOptions{Formatted: true})
	if err != nil || raw == nil {
		return "null"
	}
	return fmt.Sprint(raw)
}
