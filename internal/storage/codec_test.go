package storage

import (
	"errors"
	"testing"

	"neurograph/internal/model"
)

func TestGenomeCodecRoundTrip(t *testing.T) {
	genome := testStoreGenome("codec")

	data, err := EncodeGenome(genome)
	if err != nil {
		t.Fatalf("EncodeGenome: %v", err)
	}
	decoded, err := DecodeGenome(data)
	if err != nil {
		t.Fatalf("DecodeGenome: %v", err)
	}
	if decoded.ID != "codec" || decoded.Layers[0].Weights[5] != 6 {
		t.Fatalf("round trip corrupted genome: %+v", decoded)
	}
}

func TestDecodeGenomeRejectsVersionMismatch(t *testing.T) {
	genome := testStoreGenome("stale")
	genome.SchemaVersion = 99

	data, err := EncodeGenome(genome)
	if err != nil {
		t.Fatalf("EncodeGenome: %v", err)
	}
	if _, err := DecodeGenome(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("err = %v, want ErrVersionMismatch", err)
	}
}

func TestRunCodecRoundTrip(t *testing.T) {
	run := model.RunRecord{
		VersionedRecord:  model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		ID:               "run-1",
		Scape:            "xor",
		Seed:             7,
		PopulationSize:   20,
		Generations:      10,
		FinalBestFitness: 3.5,
		CreatedAtUTC:     "2026-08-31T00:00:00Z",
	}
	data, err := EncodeRun(run)
	if err != nil {
		t.Fatalf("EncodeRun: %v", err)
	}
	decoded, err := DecodeRun(data)
	if err != nil {
		t.Fatalf("DecodeRun: %v", err)
	}
	if decoded != run {
		t.Fatalf("round trip corrupted run: %+v", decoded)
	}
}

func TestTopGenomesCodecChecksEveryRecord(t *testing.T) {
	top := []model.TopGenomeRecord{
		{VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}, Rank: 1, Genome: testStoreGenome("a")},
		{VersionedRecord: model.VersionedRecord{SchemaVersion: 2, CodecVersion: CurrentCodecVersion}, Rank: 2, Genome: testStoreGenome("b")},
	}
	data, err := EncodeTopGenomes(top)
	if err != nil {
		t.Fatalf("EncodeTopGenomes: %v", err)
	}
	if _, err := DecodeTopGenomes(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("err = %v, want ErrVersionMismatch", err)
	}
}

func TestFitnessHistoryCodecRoundTrip(t *testing.T) {
	history := []float64{0.5, 1.25, 2}
	data, err := EncodeFitnessHistory(history)
	if err != nil {
		t.Fatalf("EncodeFitnessHistory: %v", err)
	}
	decoded, err := DecodeFitnessHistory(data)
	if err != nil {
		t.Fatalf("DecodeFitnessHistory: %v", err)
	}
	if len(decoded) != 3 || decoded[2] != 2 {
		t.Fatalf("round trip corrupted history: %v", decoded)
	}
}
