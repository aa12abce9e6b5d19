// Package datagen builds unique test input. Every generated identifier carries
// a millisecond timestamp and a random suffix so concurrent runs against the
// same backend do not collide.
package datagen

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const digits = "0123456789"

var (
	titlePrefixes = []string{"Amazing", "Great", "New", "Updated", "Best", "Innovative", "Essential", "Ultimate"}
	titleSuffixes = []string{"Article", "Post", "Tutorial", "Guide", "Handbook", "Overview", "Deep Dive"}

	descriptions = []string{
		"A comprehensive look at modern development practices",
		"Exploring the latest technology trends and innovations",
		"Best practices every developer should know",
		"Quick guide for efficient development workflows",
		"Learn something new and valuable today",
		"Essential insights for professional growth",
		"Practical approaches to complex problems",
	}

	availableTags = []string{
		"programming", "testing", "golang", "automation", "dev", "tutorial",
		"tips", "coding", "backend", "frontend", "api", "ui", "ux", "devops",
	}

	commentBodies = []string{
		"Great article! Very insightful.",
		"Thanks for sharing this valuable information",
		"Very helpful, learned something new",
		"Good stuff, well explained",
		"Nice explanation, clear and concise",
		"Excellent points, thanks for the details",
		"This is exactly what I was looking for",
	}
)

// randomDigits returns n random decimal digits
func randomDigits(n int) string {
	s, err := gonanoid.Generate(digits, n)
	if err != nil {
		// crypto/rand failure; fall back to the non-crypto source
		var b strings.Builder
		for i := 0; i < n; i++ {
			b.WriteByte(digits[rand.IntN(len(digits))])
		}
		return b.String()
	}
	return s
}

func millis() int64 {
	return time.Now().UnixMilli()
}

func pick(items []string) string {
	return items[rand.IntN(len(items))]
}

// Unique returns "<prefix>-<unix millis>-<4 random digits>"
func Unique(prefix string) string {
	return fmt.Sprintf("%s-%d-%s", prefix, millis(), randomDigits(4))
}

// UniqueTitle returns a unique title; prefix defaults to "Article"
func UniqueTitle(prefix string) string {
	if prefix == "" {
		prefix = "Article"
	}
	return Unique(prefix)
}

// RandomTitle returns a readable title such as "Great Guide 1712345678901"
func RandomTitle() string {
	return fmt.Sprintf("%s %s %d", pick(titlePrefixes), pick(titleSuffixes), millis())
}

func RandomDescription() string {
	return pick(descriptions)
}

// RandomBody returns a markdown article body
func RandomBody() string {
	return fmt.Sprintf(`# Introduction

This is auto-generated content for testing purposes. The article explores various aspects of modern software development.

## Key Points

- **Quality**: Focus on writing clean, maintainable code
- **Testing**: Comprehensive test coverage ensures reliability
- **Automation**: Streamline repetitive tasks for efficiency
- **Collaboration**: Work effectively with team members

## Conclusion

These practices help create better software and improve development workflows.

*Generated: %d*`, millis())
}

// CustomBody returns a markdown article body about topic
func CustomBody(topic string) string {
	return fmt.Sprintf(`# %[1]s

This article covers important aspects of %[1]s in modern software development.

## Overview

Understanding %[1]s is crucial for building robust applications.

## Best Practices

1. Follow established conventions
2. Write comprehensive tests
3. Document your work
4. Seek feedback from peers

*Generated: %[2]d*`, topic, millis())
}

// RandomTags returns count distinct tags from the built-in list
func RandomTags(count int) ([]string, error) {
	if count < 0 || count > len(availableTags) {
		return nil, fmt.Errorf("cannot request %d tags, %d available", count, len(availableTags))
	}
	shuffled := make([]string, len(availableTags))
	copy(shuffled, availableTags)
	rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	return shuffled[:count], nil
}

// SpecificTags returns tags as given
func SpecificTags(tags ...string) []string {
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}

func RandomComment() string {
	return pick(commentBodies)
}

func RandomEmail() string {
	return fmt.Sprintf("user-%d-%s@example.com", millis(), randomDigits(4))
}

func RandomUsername() string {
	return fmt.Sprintf("user%d%s", millis(), randomDigits(3))
}

func RandomPassword() string {
	return "TestPass" + randomDigits(4) + "!"
}
