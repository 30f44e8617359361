package firestore

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"github.com/vogiaan1904/eventhub-seatsync/config"
	"google.golang.org/api/option"
)

// Connect returns nil without error when no project is configured; Firestore is an
// optional mirror and callers treat a nil client as "unavailable".
func Connect(ctx context.Context, cfg config.FirestoreConfig) (*firestore.Client, error) {
	if cfg.ProjectID == "" {
		log.Println("Firestore not configured, mirror disabled.")
		return nil, nil
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	cli, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	log.Printf("Connected to Firestore project %s.\n", cfg.ProjectID)

	return cli, nil
}

func Disconnect(cli *firestore.Client) {
	if cli == nil {
		return
	}

	cli.Close()

	log.Println("Connection to Firestore closed.")
}
