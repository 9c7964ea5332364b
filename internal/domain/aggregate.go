package domain

// Aggregate math for store ratings. Submitting a first rating adds to both
// sum and count; revising adjusts the sum by the delta and leaves the count
// alone. Deleting reverses a single rating. All operations are O(1) in the
// number of ratings.

// ApplyNew folds a first-time rating into the aggregate.
func ApplyNew(sum, count int64, value int) (int64, int64) {
	return sum + int64(value), count + 1
}

// ApplyRevision replaces a previous rating value with a new one. The count is
// unchanged; only the delta moves the sum.
func ApplyRevision(sum, count int64, oldValue, newValue int) (int64, int64) {
	return sum + int64(newValue) - int64(oldValue), count
}

// ApplyRemoval reverses a rating out of the aggregate. Count never goes
// negative even if called against an empty aggregate.
func ApplyRemoval(sum, count int64, value int) (int64, int64) {
	if count <= 0 {
		return 0, 0
	}
	return sum - int64(value), count - 1
}

// Average derives the mean rating from the aggregate. An empty aggregate
// averages zero.
func Average(sum, count int64) float64 {
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count)
}
