// Command enqueue publishes a single evidence processing request, mirroring
// what the upstream application emits when a document upload completes.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/kirillkom/grc-evidence-pipeline/internal/config"
	"github.com/kirillkom/grc-evidence-pipeline/internal/core/domain"
	"github.com/kirillkom/grc-evidence-pipeline/internal/infrastructure/queue/nats"
)

func main() {
	appID := flag.Int64("app", 0, "application id owning the document")
	sourceID := flag.Int64("source", 0, "evidence source id to process")
	customerID := flag.String("customer", "", "customer id owning the application")
	sourceTypeID := flag.Int64("source-type", 0, "source type id of the document")
	flag.Parse()

	if *appID == 0 || *sourceID == 0 || *customerID == "" {
		log.Fatal("usage: enqueue -app <id> -source <id> -customer <id> [-source-type <id>]")
	}

	cfg := config.Load()
	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		log.Fatalf("init message queue: %v", err)
	}
	defer queue.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req := domain.ProcessRequest{
		AppID:        *appID,
		SourceID:     *sourceID,
		CustomerID:   *customerID,
		SourceTypeID: *sourceTypeID,
	}
	if err := queue.PublishProcessRequest(ctx, req); err != nil {
		log.Fatalf("publish process request: %v", err)
	}
	log.Printf("enqueued source=%d app=%d on %s", *sourceID, *appID, cfg.NATSSubject)
}
