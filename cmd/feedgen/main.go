// Command feedgen writes a file of random 48-byte wire records, for
// driving cmd/benchmark without a live feed.
//
// Grounded on original_source/src/tools/generate_feed.cpp (random
// type/side/price/qty around a central price, sequential order ids) and
// _examples/lightsgoout-go-quantcup/types.go's GenerateRandomOrder
// (flag-driven CLI, the same random-field-per-record shape).
package main

import (
	"bufio"
	"flag"
	"log"
	"math/rand"
	"os"

	"github.com/lightsgoout/lobcore/internal/clock"
	"github.com/lightsgoout/lobcore/internal/wire"
)

func main() {
	out := flag.String("out", "feed.bin", "output file path")
	count := flag.Uint64("count", 100_000, "number of records to generate")
	centerPrice := flag.Int64("center-price", 10_000, "center of the generated price range")
	priceSpread := flag.Int64("price-spread", 50, "+/- spread around center-price")
	maxOrderID := flag.Uint64("max-order-id", 1<<16, "exclusive upper bound on generated order ids")
	seed := flag.Int64("seed", 1, "PRNG seed, for reproducible feeds")
	flag.Parse()

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("feedgen: create output: %v", err)
	}
	defer f.Close()

	w := bufio.NewWriterSize(f, 64*1024)
	defer w.Flush()

	rng := rand.New(rand.NewSource(*seed))
	clk := clock.New()
	buf := make([]byte, wire.RecordSize)

	for i := uint64(0); i < *count; i++ {
		u := wire.MarketUpdate{
			Timestamp: clk.NowNS(),
			Kind:      wire.UpdateKind(rng.Intn(3)),
			Side:      wire.Side(rng.Intn(2)),
			OrderID:   rng.Uint64() % *maxOrderID,
			Price:     *centerPrice + rng.Int63n(2*(*priceSpread)+1) - *priceSpread,
			Qty:       1 + rng.Int63n(100),
		}
		wire.Encode(u, buf)
		if _, err := w.Write(buf); err != nil {
			log.Fatalf("feedgen: write record %d: %v", i, err)
		}
	}

	log.Printf("feedgen: wrote %d records to %s", *count, *out)
}
