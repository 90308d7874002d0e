package cache

import (
	"encoding/json"
	"fmt"
	"sort"

	bolt "go.etcd.io/bbolt"

	"github.com/soundry/soundry/internal/shared"
)

// retentionDays bounds the usage ledger; records older than this are pruned
// on every write, relative to the write's own clock.
const retentionDays = 30

// ServiceUsage holds per-day counters for one external service.
// Counters only ever increase within a day.
type ServiceUsage struct {
	Calls         int `json:"calls"`
	Success       int `json:"success"`
	Failed        int `json:"failed"`
	UnitsProduced int `json:"units_produced"`
}

// UsageRecord is one calendar day of API usage across all services.
type UsageRecord struct {
	Date       string                   `json:"date"`
	PerService map[Service]ServiceUsage `json:"per_service"`
}

// UsageSummary is the operator-facing usage report.
type UsageSummary struct {
	Today   UsageRecord              `json:"today"`
	History []UsageRecord            `json:"history"`
	Totals  map[Service]ServiceUsage `json:"totals"`
}

// RecordUsage increments the current day's counters for service, creating the
// day record lazily and pruning anything older than the retention window.
func (s *Store) RecordUsage(service Service, success bool, unitsProduced int) error {
	now := s.now()
	today := shared.DayKey(now)
	cutoff := shared.DayKey(now.AddDate(0, 0, -retentionDays))

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(usageBucket))
		if b == nil {
			return fmt.Errorf("%w: usage ledger bucket missing", shared.ErrInvalidInput)
		}

		record := UsageRecord{Date: today, PerService: map[Service]ServiceUsage{}}
		if data := b.Get([]byte(today)); data != nil {
			if err := json.Unmarshal(data, &record); err != nil {
				return fmt.Errorf("failed to read usage record for %s: %w", today, err)
			}
		}

		usage := record.PerService[service]
		usage.Calls++
		if success {
			usage.Success++
		} else {
			usage.Failed++
		}
		usage.UnitsProduced += unitsProduced
		record.PerService[service] = usage

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal usage record: %w", err)
		}
		if err := b.Put([]byte(today), data); err != nil {
			return err
		}

		// Day keys sort lexicographically, so a cursor walk up to the cutoff
		// finds every expired record.
		var expired [][]byte
		c := b.Cursor()
		for k, _ := c.First(); k != nil && string(k) < cutoff; k, _ = c.Next() {
			expired = append(expired, append([]byte(nil), k...))
		}
		for _, k := range expired {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Usage builds the operator usage summary: today's counters, the retained
// history newest-first, and running totals per service.
func (s *Store) Usage() (*UsageSummary, error) {
	today := shared.DayKey(s.now())

	summary := &UsageSummary{
		Today:  UsageRecord{Date: today, PerService: map[Service]ServiceUsage{}},
		Totals: map[Service]ServiceUsage{},
	}

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(usageBucket))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var record UsageRecord
			if err := json.Unmarshal(v, &record); err != nil {
				s.logger.Warn("skipping unreadable usage record", "date", string(k))
				return nil
			}
			summary.History = append(summary.History, record)
			if record.Date == today {
				summary.Today = record
			}
			for svc, usage := range record.PerService {
				total := summary.Totals[svc]
				total.Calls += usage.Calls
				total.Success += usage.Success
				total.Failed += usage.Failed
				total.UnitsProduced += usage.UnitsProduced
				summary.Totals[svc] = total
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(summary.History, func(i, j int) bool {
		return summary.History[i].Date > summary.History[j].Date
	})

	return summary, nil
}
