// ABOUTME: Basic example showing link parsing with the linkparse library
// ABOUTME: Demonstrates default configuration, cache reuse and markdown output

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"linkparse-api/linkparse"
)

func main() {
	client, err := linkparse.NewClient()
	if err != nil {
		log.Fatal("Failed to create client:", err)
	}
	defer client.Close()

	target := "https://go.dev/blog/go1.22"
	if len(os.Args) > 1 {
		target = os.Args[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Println("=== Parsing ===")
	start := time.Now()
	result, err := client.Parse(ctx, target)
	if err != nil {
		log.Fatalf("Error parsing %s: %v", target, err)
	}
	fmt.Printf("Title: %s\n", result.Title)
	fmt.Printf("Type: %s (strategy %s, confidence %.2f)\n", result.Type, result.Strategy, result.Confidence)
	if result.IsWebview() {
		fmt.Printf("Open in a webview: %s\n", result.FallbackReason)
	}
	fmt.Printf("Took: %v\n", time.Since(start))

	fmt.Println("\n=== Parsing again (cached) ===")
	start = time.Now()
	if _, err := client.Parse(ctx, target+"?utm_source=example"); err != nil {
		log.Printf("Error parsing: %v\n", err)
	}
	fmt.Printf("Took: %v\n", time.Since(start))

	if result.IsWebview() {
		return
	}

	fmt.Println("\n=== Markdown ===")
	markdown, err := result.Markdown()
	if err != nil {
		log.Printf("Error converting: %v\n", err)
		return
	}
	if len(markdown) > 600 {
		markdown = markdown[:600] + "..."
	}
	fmt.Println(markdown)
}
