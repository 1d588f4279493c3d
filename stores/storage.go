package stores

import (
	"context"
	"os"
	"strconv"

	"labelpro/core"
	"labelpro/stores/aws"
	"labelpro/stores/filesystem"
	"labelpro/stores/memory"
	"labelpro/stores/sqlite"

	"github.com/sirupsen/logrus"
)

// Store is the template store selected at startup. Revisions is nil for
// backends that keep no history.
type Store struct {
	core.TemplateStore
	Revisions core.RevisionStore
}

// GetStore picks the backend from STORAGE_TYPE and exits on setup failure.
func GetStore() Store {
	storageType := os.Getenv("STORAGE_TYPE")
	maxRevisions := core.DefaultMaxRevisions
	if v := os.Getenv("MAX_REVISIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logrus.WithField("maxRevisions", v).Fatal("MAX_REVISIONS must be a positive integer")
		}
		maxRevisions = n
	}

	storageField := logrus.Fields{
		"storageType":  storageType,
		"maxRevisions": maxRevisions,
	}

	var store Store
	switch storageType {
	case "filesystem":
		basePath := os.Getenv("LOCAL_STORAGE_PATH")
		if basePath == "" {
			basePath = "./data"
		}
		storageField["basePath"] = basePath
		fs, err := filesystem.NewStore(basePath)
		if err != nil {
			logrus.WithFields(storageField).Fatal(err)
		}
		store = Store{TemplateStore: fs}
	case "sqlite":
		dataSourceName := os.Getenv("DATA_SOURCE_NAME")
		if dataSourceName == "" {
			dataSourceName = "labelpro.db"
		}
		storageField["dataSourceName"] = dataSourceName
		db, err := sqlite.NewStore(dataSourceName)
		if err != nil {
			logrus.WithFields(storageField).Fatal(err)
		}
		db.MaxRevisions = maxRevisions
		store = Store{TemplateStore: db, Revisions: db}
	case "s3":
		bucketName := os.Getenv("S3_BUCKET_NAME")
		if bucketName == "" {
			logrus.Fatal("S3_BUCKET_NAME environment variable must be set for s3 storage type")
		}
		storageField["bucketName"] = bucketName
		s3, err := aws.NewStore(context.Background(), bucketName)
		if err != nil {
			logrus.WithFields(storageField).Fatal(err)
		}
		store = Store{TemplateStore: s3}
	default:
		mem := memory.NewStore()
		mem.MaxRevisions = maxRevisions
		store = Store{TemplateStore: mem, Revisions: mem}
		storageField["storageType"] = "in-memory"
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store
}
