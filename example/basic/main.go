package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/siherrmann/fuser"
	"github.com/siherrmann/fuser/database"
	"github.com/siherrmann/fuser/helper"
	"github.com/siherrmann/fuser/model"
)

var sampleChunks = []string{
	"Ada Lovelace worked with Charles Babbage on the Analytical Engine.",
	"The Analytical Engine was a proposed mechanical general-purpose computer.",
	"Charles Babbage is often called the father of the computer.",
	"Vector similarity search retrieves text by semantic closeness rather than keywords.",
	"Knowledge graphs connect entities through typed relationships.",
}

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	// Real sentence transformer embedder (all-MiniLM-L6-v2, 384 dimensions)
	embed, err := database.DefaultEmbedder()
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}

	f, err := fuser.NewPostgres(dbConfig, embed, 384)
	if err != nil {
		log.Fatalf("Failed to create fuser: %v", err)
	}
	defer f.Close()

	// Insert a document with embedded chunks
	doc := &model.Document{
		Title:  "Computing Pioneers",
		Source: "basic_example",
		Metadata: model.Metadata{
			"topic": "history of computing",
		},
	}
	if err := f.Documents.InsertDocument(doc); err != nil {
		log.Fatalf("Failed to insert document: %v", err)
	}
	fmt.Printf("Document inserted with ID: %s\n", doc.RID)

	for i, content := range sampleChunks {
		embedding, err := embed(content)
		if err != nil {
			log.Fatalf("Failed to embed chunk %d: %v", i, err)
		}
		chunk := &model.Chunk{
			DocumentID: doc.ID,
			Content:    content,
			Embedding:  embedding,
			ChunkIndex: i,
		}
		if err := f.Chunks.InsertChunk(chunk); err != nil {
			log.Fatalf("Failed to insert chunk %d: %v", i, err)
		}
	}
	fmt.Printf("Inserted %d chunks\n", len(sampleChunks))

	// Build a small entity graph over the document
	ada := &model.Entity{Name: "Ada Lovelace", Type: "person"}
	babbage := &model.Entity{Name: "Charles Babbage", Type: "person"}
	engine := &model.Entity{Name: "Analytical Engine", Type: "machine"}
	for _, entity := range []*model.Entity{ada, babbage, engine} {
		if err := f.Graph.InsertEntity(entity); err != nil {
			log.Fatalf("Failed to insert entity %s: %v", entity.Name, err)
		}
	}

	edges := []*model.EntityEdge{
		{SourceEntityID: ada.ID, TargetEntityID: babbage.ID, Relation: "worked_with", Weight: 1.0},
		{SourceEntityID: babbage.ID, TargetEntityID: engine.ID, Relation: "designed", Weight: 1.0},
	}
	for _, edge := range edges {
		if err := f.Graph.InsertEntityEdge(edge); err != nil {
			log.Fatalf("Failed to insert edge: %v", err)
		}
	}

	mentions := map[*model.Entity][]int{
		ada:     {0},
		babbage: {0, 2},
		engine:  {0, 1},
	}
	for entity, chunkIndexes := range mentions {
		for _, idx := range chunkIndexes {
			mention := &model.EntityMention{
				EntityID:    entity.ID,
				DocumentRID: doc.RID,
				ChunkIndex:  idx,
			}
			if err := f.Graph.InsertEntityMention(mention); err != nil {
				log.Fatalf("Failed to insert mention: %v", err)
			}
		}
	}

	// Run a hybrid query; "related to" is a graph cue, so both collaborators
	// are invoked and their results fused
	queryText := "How is Ada Lovelace related to the Analytical Engine?"
	fmt.Printf("\nQuerying: %s\n", queryText)

	config := model.DefaultQueryConfig()
	config.VectorThreshold = 0.0

	result, err := f.RunHybridQuery(context.Background(), queryText, &config)
	if err != nil {
		log.Fatalf("Failed to run hybrid query: %v", err)
	}

	fmt.Printf("\nFound %d evidence items (of %d ranked, sparse=%v):\n",
		len(result.Evidence), result.TotalRanked, result.IsSparse)
	for i, item := range result.Evidence {
		fmt.Printf("\n--- Evidence %d ---\n", i+1)
		fmt.Printf("Score: %.4f\n", item.CombinedScore)
		fmt.Printf("Ref: %s\n", item.CanonicalID)
		fmt.Printf("Sources: %v\n", item.SourceTypes())
		fmt.Printf("Corroborated: %v\n", item.Corroborated())
		if len(item.ContributingHits) > 0 {
			fmt.Printf("Content: %s\n", item.ContributingHits[0].Payload)
		}
	}

	fmt.Println("\nTool trace:")
	for _, entry := range result.Trace {
		if entry.Skipped {
			fmt.Printf("  %s: skipped (%s)\n", entry.ToolName, entry.Reason)
			continue
		}
		fmt.Printf("  %s: %d results in %v after %d attempt(s)\n",
			entry.ToolName, entry.ResultCount, entry.Duration, entry.Attempts)
	}

	fmt.Println(strings.Repeat("-", 40))
	fmt.Println("Basic example completed successfully!")
}
