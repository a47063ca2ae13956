package record

import (
	"encoding/json"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// Trophy categories are a fixed set; anything else is rejected on input.
const (
	TrophyClubChampion = "club_champion"
	TrophyRunnerUp     = "runner_up"
	TrophyMostImproved = "most_improved"
	TrophyLongestDrive = "longest_drive"
	TrophyNearestPin   = "nearest_pin"
	TrophyLowNet       = "low_net"
)

// Record is a single tournament result entry.
// No field is globally unique; duplicates are accepted as-is.
type Record struct {
	Name    string `json:"name" validate:"required"`
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	Trophy  string `json:"trophy" validate:"required,oneof=club_champion runner_up most_improved longest_drive nearest_pin low_net"`
	Course  string `json:"course" validate:"required"`
	Score   int    `json:"score" validate:"required"`
	History string `json:"history,omitempty"`
}

// Collection is the ordered set of records known to the application.
// Insertion order is significant for display (most recent additions first).
type Collection []Record

var validate = validator.New()

// Validate checks a single record against the model constraints.
func Validate(r Record) error {
	return validate.Struct(&r)
}

// ValidateCollection checks every record in the collection.
func ValidateCollection(c Collection) error {
	for i := range c {
		if err := validate.Struct(&c[i]); err != nil {
			return err
		}
	}
	return nil
}

// Clone deep-copies the collection so snapshots never share backing arrays with callers.
func Clone(c Collection) (Collection, error) {
	if c == nil {
		return Collection{}, nil
	}
	bytes, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	var copy Collection
	if err := json.Unmarshal(bytes, &copy); err != nil {
		return nil, err
	}
	if copy == nil {
		copy = Collection{}
	}
	return copy, nil
}

// Equal compares two collections record-by-record, order included.
// Uses JSON serialization for flexible comparison.
func Equal(a, b Collection) bool {
	aBytes, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bBytes, err := json.Marshal(b)
	if err != nil {
		return false
	}

	var aVal, bVal []map[string]interface{}
	if err := json.Unmarshal(aBytes, &aVal); err != nil {
		return false
	}
	if err := json.Unmarshal(bBytes, &bVal); err != nil {
		return false
	}

	return reflect.DeepEqual(aVal, bVal)
}
