// Package fizzbuzz maps integers to their FizzBuzz display string
package fizzbuzz

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Category names the branch a number falls into
type Category string

const (
	CategoryFizzBuzz Category = "fizzbuzz"
	CategoryFizz     Category = "fizz"
	CategoryBuzz     Category = "buzz"
	CategoryNumber   Category = "number"
)

// Result is a single classification with request metadata
type Result struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	Number    int       `json:"number"`
	Output    string    `json:"output"`
	Category  Category  `json:"category"`
}

// CategoryOf reports which FizzBuzz branch n takes.
// Divisibility by both 3 and 5 wins over either alone.
func CategoryOf(n int) Category {
	switch {
	case n%3 == 0 && n%5 == 0:
		return CategoryFizzBuzz
	case n%3 == 0:
		return CategoryFizz
	case n%5 == 0:
		return CategoryBuzz
	default:
		return CategoryNumber
	}
}

// Classify returns "FizzBuzz", "Fizz", "Buzz" or the decimal form of n
func Classify(n int) string {
	switch CategoryOf(n) {
	case CategoryFizzBuzz:
		return "FizzBuzz"
	case CategoryFizz:
		return "Fizz"
	case CategoryBuzz:
		return "Buzz"
	default:
		return strconv.Itoa(n)
	}
}

// Evaluate classifies n and stamps the result with a request ID and time
func Evaluate(n int) Result {
	return Result{
		RequestID: uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Number:    n,
		Output:    Classify(n),
		Category:  CategoryOf(n),
	}
}
