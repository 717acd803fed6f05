package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/compliance-service/internal/auth"
	"github.com/spec-kit/compliance-service/internal/domain"
	apperrors "github.com/spec-kit/compliance-service/pkg/util"
)

func actorFrom(c *fiber.Ctx) (domain.Actor, error) {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return domain.Actor{}, apperrors.NewUnauthorized("member required")
	}
	return actor, nil
}

// expectedRevision reads If-Match, accepting quoted and weak entity tags.
func expectedRevision(c *fiber.Ctx) string {
	val := strings.TrimSpace(c.Get(fiber.HeaderIfMatch))
	if val == "" || val == "*" {
		return ""
	}
	val = strings.TrimPrefix(val, "W/")
	return strings.Trim(val, `"`)
}

func setETag(c *fiber.Ctx, revisionID string) {
	c.Set(fiber.HeaderETag, `"`+revisionID+`"`)
}

func splitList(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &parsed
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

// pageBounds converts page/page_size query values to limit and offset.
func pageBounds(c *fiber.Ctx) (limit, offset int) {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	return pageSize, (page - 1) * pageSize
}
