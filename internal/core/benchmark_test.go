package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
)

// ============================================================================
// Conversion Benchmarks
// ============================================================================

// BenchmarkParseHours covers every hours encoding seen in exports.
func BenchmarkParseHours(b *testing.B) {
	testCases := []string{
		"1.2",
		"0.3",
		"1:12",   // H:MM
		"  2.5 ", // Whitespace
		"",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			_, _ = ParseHours(tc)
		}
	}
}

// BenchmarkParseDate runs once per flight row.
func BenchmarkParseDate(b *testing.B) {
	testCases := []string{
		"2024-01-15",
		"01/15/2024",
		"1/5/24", // 2-digit year
		"not a date",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ParseDate(tc)
		}
	}
}

func BenchmarkParseClock(b *testing.B) {
	testCases := []string{"1430", "14:30", "2:30 PM", "2024-01-15T14:30:00Z"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ParseClock(tc)
		}
	}
}

func BenchmarkCleanCell(b *testing.B) {
	testCases := []string{"KJFK", "  N12345  ", "\"quoted\"", "=\"00123\""}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			CleanCell(tc)
		}
	}
}

// ============================================================================
// Pipeline Benchmarks
// ============================================================================

// BenchmarkReadRows measures CSV decoding, including BOM and UTF-8 handling.
func BenchmarkReadRows(b *testing.B) {
	data := generateBundledCSV(1000)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := ReadRows("logbook.csv", bytes.NewReader(data), 0); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkParse runs the full parse of a bundled export at several worker
// counts.
func BenchmarkParse(b *testing.B) {
	rows, err := ReadRows("logbook.csv", bytes.NewReader(generateBundledCSV(5000)), 0)
	if err != nil {
		b.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	for _, workers := range []int{1, 4} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			p := NewParser(ParserConfig{Workers: workers, ChunkSize: 500}, logger)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := p.Parse(context.Background(), rows, nil); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// ============================================================================
// Helpers
// ============================================================================

// generateBundledCSV builds a bundled export with n flights over two aircraft.
func generateBundledCSV(n int) []byte {
	rows := make([]string, n)
	for i := range n {
		tail := "N12345"
		if i%2 == 1 {
			tail = "N67890"
		}
		rows[i] = fmt.Sprintf("2024-%02d-%02d,%s,KJFK,KLGA,,,,1.%d,1.%d,,1,,1,,,,,flight %d",
			i%12+1, i%28+1, tail, i%10, i%10, i)
	}
	return []byte(bundled(rows...))
}
