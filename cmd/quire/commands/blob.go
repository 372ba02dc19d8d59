package commands

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/dyluth/quire/internal/blob"
	"github.com/dyluth/quire/internal/logger"
	"github.com/dyluth/quire/internal/printer"
	"github.com/dyluth/quire/pkg/datatype"
	"github.com/dyluth/quire/pkg/schema"
)

var blobName string

var blobCmd = &cobra.Command{
	Use:   "blob",
	Short: "Manage file payloads of entities",
}

var blobPutCmd = &cobra.Command{
	Use:   "put <identifier> <file>",
	Short: "Store a file for an entity and record its URL, size and type",
	Long: `Copy a file into the blob store under {shard}/{entity_type}/{digest}/{name}
and record file_url, file_size and file_mime_type on the entity.

Examples:
  quire blob put 3-5-0000 ./cover.jpg
  quire blob put 3-5-0000 ./scan.pdf --name original.pdf`,
	Args: cobra.ExactArgs(2),
	RunE: runBlobPut,
}

func init() {
	blobPutCmd.Flags().StringVar(&blobName, "name", "", "Blob name (default: the file's base name)")
	blobCmd.AddCommand(blobPutCmd)
	rootCmd.AddCommand(blobCmd)
}

func runBlobPut(cmd *cobra.Command, args []string) error {
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
	source := args[1]
	data, err := afero.ReadFile(fsys, source)
	if err != nil {
		return printer.Error("cannot read file", err.Error(), nil)
	}

	name := blobName
	if name == "" {
		name = filepath.Base(source)
	}
	path, err := blob.PathFor(id, name)
	if err != nil {
		return printer.Error("invalid blob name", err.Error(), nil)
	}

	blobs, err := openBlobs()
	if err != nil {
		return printer.Error("invalid blob configuration", err.Error(), nil)
	}
	url, err := blobs.Put(ctx, path, data)
	if err != nil {
		return err
	}

	e, err := repo.Load(ctx, id)
	if err != nil {
		return err
	}
	c := repo.Codec()
	for attr, value := range map[string]any{
		schema.FileURL:      url,
		schema.FileSize:     len(data),
		schema.FileMimeType: mimeTypeOf(name, data),
	} {
		if err := c.Put(e, attr, value, datatype.WriteOptions{}); err != nil {
			return fmt.Errorf("failed to record %s: %w", attr, err)
		}
	}
	if err := repo.Save(ctx, e); err != nil {
		return err
	}

	logger.Logger.Infow("blob stored", logger.FieldEntityID, id.String(), logger.FieldPath, path, logger.FieldSize, len(data))
	printer.Success("%s\n", url)
	return nil
}

// mimeTypeOf guesses from the extension first, then from the content.
func mimeTypeOf(name string, data []byte) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return http.DetectContentType(data)
}
