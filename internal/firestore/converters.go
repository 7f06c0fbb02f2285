package firestore

import (
	"strava-workout-sync/internal/workout"
)

// Document field names
const (
	fieldActivityID      = "activity_id"
	fieldName            = "name"
	fieldType            = "type"
	fieldDate            = "date"
	fieldStartTimeLocal  = "start_time_local"
	fieldDurationMinutes = "duration_minutes"
	fieldDistanceMiles   = "distance_miles"
	fieldCalendarCreated = "calendar_created"
)

func RecordToFirestore(r *workout.Record) map[string]interface{} {
	return map[string]interface{}{
		fieldActivityID:      r.ActivityID,
		fieldName:            r.Name,
		fieldType:            r.Type,
		fieldDate:            r.Date,
		fieldStartTimeLocal:  r.StartTimeLocal,
		fieldDurationMinutes: r.DurationMinutes,
		fieldDistanceMiles:   r.DistanceMiles,
		fieldCalendarCreated: r.CalendarCreated,
	}
}

func FirestoreToRecord(id string, m map[string]interface{}) *workout.Record {
	return &workout.Record{
		ID:              id,
		ActivityID:      getInt64(m, fieldActivityID),
		Name:            getString(m, fieldName),
		Type:            getString(m, fieldType),
		Date:            getString(m, fieldDate),
		StartTimeLocal:  getString(m, fieldStartTimeLocal),
		DurationMinutes: int(getInt64(m, fieldDurationMinutes)),
		DistanceMiles:   getFloat64(m, fieldDistanceMiles),
		CalendarCreated: getBool(m, fieldCalendarCreated),
	}
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// Firestore returns integers as int64 and doubles as float64
func getInt64(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func getFloat64(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

func getBool(m map[string]interface{}, key string) bool {
	v, _ := m[key].(bool)
	return v
}
