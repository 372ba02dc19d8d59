package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyluth/quire/internal/printer"
	"github.com/dyluth/quire/internal/store"
	"github.com/dyluth/quire/pkg/datatype"
	"github.com/dyluth/quire/pkg/schema"
)

var (
	setLang    string
	setVersion int
	unsetLang  string
)

var setCmd = &cobra.Command{
	Use:   "set <identifier> <attribute> <value>",
	Short: "Write one attribute of a stored entity",
	Long: `Write one attribute of a stored entity and save it.

The value is validated and coerced by the attribute's kind (e.g. file_size
accepts "1.5 MB"). Without --ver the write lands one version above the value
currently held, so it wins. Text attributes are written in --lang, or in
languages.default from quire.yml.

If another writer saved the entity in the meantime, both copies are merged
attribute by attribute and the save is retried.

Examples:
  quire set 3-5-0000 title "Red dog" --lang en
  quire set 3-5-0000 file_size "2.5 MB"
  quire set 3-5-0000 rating 4 --ver 10`,
	Args: cobra.ExactArgs(3),
	RunE: runSet,
}

var unsetCmd = &cobra.Command{
	Use:   "unset <identifier> <attribute>",
	Short: "Delete one attribute of a stored entity",
	Long: `Delete one attribute of a stored entity, leaving a tombstone so that the
deletion survives merges. Text attributes are deleted in --lang only.`,
	Args: cobra.ExactArgs(2),
	RunE: runUnset,
}

func init() {
	setCmd.Flags().StringVarP(&setLang, "lang", "l", "", "Language for text attributes (default: languages.default)")
	setCmd.Flags().IntVar(&setVersion, "ver", 0, "Explicit version for the value")
	unsetCmd.Flags().StringVarP(&unsetLang, "lang", "l", "", "Language for text attributes (default: languages.default)")
	rootCmd.AddCommand(setCmd, unsetCmd)
}

func runSet(cmd *cobra.Command, args []string) error {
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
	attr, input := args[1], args[2]

	c := repo.Codec()
	lang, err := languageFor(c, attr, setLang)
	if err != nil {
		return attributeError(attr, err)
	}
	opts := datatype.WriteOptions{Lang: lang}
	if cmd.Flags().Changed("ver") {
		v := setVersion
		opts.Version = &v
	}

	e, err := repo.Load(ctx, id)
	if err != nil {
		return err
	}
	if err := c.Put(e, attr, input, opts); err != nil {
		return attributeError(attr, err)
	}
	if err := repo.Save(ctx, e); err != nil {
		if store.IsConflict(err) {
			return printer.Error("entity kept changing", err.Error(),
				[]string{"Raise store.max_merge_retries in quire.yml, or try again."})
		}
		return err
	}

	v, err := c.Value(e, attr, lang)
	if err != nil {
		return err
	}
	printer.Success("%s %s = %s (v%d, revision %s)\n", id, attr, display(v), v.Version(), e.Revision())
	return nil
}

func runUnset(cmd *cobra.Command, args []string) error {
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
	attr := args[1]

	c := repo.Codec()
	lang, err := languageFor(c, attr, unsetLang)
	if err != nil {
		return attributeError(attr, err)
	}

	e, err := repo.Load(ctx, id)
	if err != nil {
		return err
	}
	if err := c.Unset(e, attr, lang); err != nil {
		return attributeError(attr, err)
	}
	if err := repo.Save(ctx, e); err != nil {
		return err
	}
	printer.Success("%s %s deleted (revision %s)\n", id, attr, e.Revision())
	return nil
}

// attributeError explains schema and validation failures.
func attributeError(attr string, err error) error {
	switch {
	case errors.Is(err, schema.ErrUnknownAttribute):
		return printer.Error(fmt.Sprintf("unknown attribute '%s'", attr), err.Error(),
			[]string{"Declare it under attributes: in quire.yml, e.g.\n  attributes:\n    " + attr + ": URL"})
	case errors.Is(err, datatype.ErrInvalidValue), errors.Is(err, datatype.ErrInvalidVersion):
		return printer.Error(fmt.Sprintf("invalid value for '%s'", attr), err.Error(), nil)
	}
	return err
}
