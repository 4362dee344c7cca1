package main

import (
	"context"
	"errors"
	"os"
	"strconv"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	log "github.com/sirupsen/logrus"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	log.Info("storage init starting")

	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	if connStr == "" {
		log.Fatal("missing STORAGE_CONNECTION_STRING")
	}

	svc, err := aztables.NewServiceClientFromConnectionString(connStr, nil)
	if err != nil {
		log.Fatalf("table service: %v", err)
	}
	if err := createTables(context.Background(), svc, tableNames()); err != nil {
		log.Fatalf("create tables: %v", err)
	}

	log.Info("storage init complete")
}

func tableNames() []string {
	return []string{envOr("ITEMS_TABLE", "items"), envOr("LISTS_TABLE", "lists")}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

type tableCreator interface {
	CreateTable(ctx context.Context, name string, options *aztables.CreateTableOptions) (aztables.CreateTableResponse, error)
}

func createTables(ctx context.Context, svc tableCreator, names []string) error {
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, err := svc.CreateTable(ctx, name, nil); err != nil {
			if !alreadyExists(err) {
				return err
			}
			log.WithField("table", name).Debug("table already exists")
			continue
		}
		log.WithField("table", name).Info("table created")
	}
	return nil
}

func alreadyExists(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists)
}
