package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/anilrana004/Workline/pkg/models"
	"github.com/anilrana004/Workline/pkg/persistence"
)

// DocumentRepository handles CMS documents under root/documents/<collection>.
type DocumentRepository struct {
	root string
}

func (dr *DocumentRepository) dir(collection string) string {
	return filepath.Join(dr.root, "documents", collection)
}

func (dr *DocumentRepository) path(collection, id string) string {
	return filepath.Join(dr.dir(collection), id+".json")
}

func (dr *DocumentRepository) DocumentByID(_ context.Context, collection, id string) (*models.Document, error) {
	var document models.Document

	ref := fmt.Sprintf("%s/%s", collection, id)

	err := readJSON(dr.path(collection, id), &document)
	if os.IsNotExist(err) {
		return nil, persistence.NewStoreError("DocumentByID", ref, persistence.ErrDocumentNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("DocumentByID", ref, err)
	}

	return &document, nil
}

func (dr *DocumentRepository) SaveDocument(_ context.Context, document *models.Document) error {
	path := dr.path(document.Collection, document.ID)
	if err := writeJSON(path, document); err != nil {
		return persistence.NewStoreError("SaveDocument", document.ID, err)
	}

	return nil
}

func (dr *DocumentRepository) DocumentsByCollection(ctx context.Context, collection string) ([]*models.Document, error) {
	ids, err := listJSON(dr.dir(collection))
	if err != nil {
		return nil, persistence.NewStoreError("DocumentsByCollection", collection, err)
	}

	documents := make([]*models.Document, 0, len(ids))

	for _, id := range ids {
		document, err := dr.DocumentByID(ctx, collection, id)
		if err != nil {
			return nil, err
		}

		documents = append(documents, document)
	}

	sort.Slice(documents, func(i, j int) bool {
		return documents[i].CreatedAt.Before(documents[j].CreatedAt)
	})

	return documents, nil
}

// Collections lists every collection a document has been stored under.
func (dr *DocumentRepository) Collections(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(dr.root, "documents"))
	if os.IsNotExist(err) {
		return nil, nil
	}

	if err != nil {
		return nil, persistence.NewStoreError("Collections", "", err)
	}

	collections := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			collections = append(collections, entry.Name())
		}
	}

	sort.Strings(collections)

	return collections, nil
}
