package counter

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/greenlean/greenlean/internal/pkg/cache"
	"github.com/greenlean/greenlean/internal/pkg/database"
)

const regenUsageKey = "regeneration:counters:usage"

// AddRegenerationUse increments the pending usage counter for one user, plan
// type and billing period in Redis. The counter is flushed to the database by
// a background worker.
func AddRegenerationUse(userID uint, planType string, period string) error {
	ctx := context.Background()
	field := fmt.Sprintf("%d:%s:%s", userID, planType, period)
	return cache.GetClient().HIncrBy(ctx, regenUsageKey, field, 1).Err()
}

// FlushAll drains pending regeneration usage counters to the database.
func FlushAll() error {
	return flushUsageHash(regenUsageKey)
}

// flushUsageHash drains a Redis hash atomically and applies the pending
// increments to regeneration_usages. Uses RENAME to a temporary key so
// in-flight increments are never lost.
func flushUsageHash(redisKey string) error {
	ctx := context.Background()
	rdb := cache.GetClient()

	tmpKey := fmt.Sprintf("%s:tmp:%d", redisKey, time.Now().UnixNano())
	if err := rdb.Do(ctx, "RENAME", redisKey, tmpKey).Err(); err != nil {
		// If key does not exist, nothing to flush
		if strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		if err.Error() == "redis: nil" {
			return nil
		}
		return err
	}

	// Ensure cleanup of tmpKey even if later steps fail
	defer rdb.Del(ctx, tmpKey)

	data, err := rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	type pending struct {
		userID   uint64
		planType string
		period   string
		inc      int64
	}
	rows := make([]pending, 0, len(data))
	for field, v := range data {
		parts := strings.SplitN(field, ":", 3)
		if len(parts) != 3 {
			continue
		}
		userID, uerr := strconv.ParseUint(parts[0], 10, 64)
		if uerr != nil {
			continue
		}
		inc, ierr := strconv.ParseInt(v, 10, 64)
		if ierr != nil || inc == 0 {
			continue
		}
		rows = append(rows, pending{userID: userID, planType: parts[1], period: parts[2], inc: inc})
	}
	if len(rows) == 0 {
		return nil
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].userID != rows[j].userID {
			return rows[i].userID < rows[j].userID
		}
		if rows[i].planType != rows[j].planType {
			return rows[i].planType < rows[j].planType
		}
		return rows[i].period < rows[j].period
	})

	// Batched upsert keyed on (user_id, plan_type, period)
	var builder strings.Builder
	args := make([]interface{}, 0, len(rows)*5)
	builder.WriteString("INSERT INTO regeneration_usages (user_id, plan_type, period, used, updated_at) VALUES ")
	for i, r := range rows {
		if i > 0 {
			builder.WriteString(",")
		}
		builder.WriteString("(?, ?, ?, ?, ?)")
		args = append(args, r.userID, r.planType, r.period, r.inc, time.Now())
	}
	builder.WriteString(" ON DUPLICATE KEY UPDATE used = used + VALUES(used), updated_at = VALUES(updated_at)")

	db := database.GetDB()
	if err := db.Exec(builder.String(), args...).Error; err != nil {
		return err
	}
	return nil
}
