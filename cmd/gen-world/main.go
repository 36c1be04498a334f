package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/aretw0/loam"

	loamAdapter "github.com/aretw0/portico/pkg/adapters/loam"
	"github.com/aretw0/portico/pkg/domain"
)

// gen-world writes a ring of partitions to disk, each linked to its
// neighbours. It is used to produce fixtures and load-test the validator.
//
//	go run ./cmd/gen-world [dir] [count]
func main() {
	targetDir := "examples/ring"
	if len(os.Args) > 1 {
		targetDir = os.Args[1]
	}
	count := 8
	if len(os.Args) > 2 {
		n, err := strconv.Atoi(os.Args[2])
		if err != nil || n < 2 {
			fmt.Fprintln(os.Stderr, "count must be a number >= 2")
			os.Exit(1)
		}
		count = n
	}

	// Ensure dir exists
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		panic(err)
	}

	fmt.Printf("Generating %d partitions in: %s\n", count, targetDir)

	// Init Loam (No Versioning = pure file generation)
	// This acts as our "Level Editor" saving to disk.
	repo, err := loam.Init(targetDir, loam.WithVersioning(false))
	if err != nil {
		panic(err)
	}
	store := loamAdapter.New(repo)
	ctx := context.TODO()

	for _, spec := range Ring(count) {
		check(store.SavePartition(ctx, spec))
	}

	fmt.Println("Done.")
}

// Ring builds count partitions where portal 1 leads forward and portal 2 back.
func Ring(count int) []domain.PartitionSpec {
	key := func(i int) domain.PartitionKey {
		return domain.PartitionKey(fmt.Sprintf("ring/p%03d", (i+count)%count))
	}

	specs := make([]domain.PartitionSpec, 0, count)
	for i := 0; i < count; i++ {
		specs = append(specs, domain.PartitionSpec{
			Key:         key(i),
			Description: fmt.Sprintf("Ring stop %d of %d", i+1, count),
			Portals: []domain.PortalSpec{
				{ID: 1, Destination: domain.Destination{Partition: key(i + 1), ID: 2}},
				{ID: 2, Destination: domain.Destination{Partition: key(i - 1), ID: 1}},
			},
		})
	}
	return specs
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}
