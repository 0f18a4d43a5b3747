package quota

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/scanvey/scanvey/app/models"
	"github.com/scanvey/scanvey/internal/pkg/subscription"
	"github.com/scanvey/scanvey/internal/pkg/tenantcontext"
)

// Response headers carrying usage annotations on gated stats reads.
const (
	HeaderQuotaWarning  = "X-Quota-Warning"
	HeaderQuotaExceeded = "X-Quota-Exceeded"
)

// warnThreshold is the usage fraction at which stats reads start carrying a
// warning annotation.
const warnThreshold = 0.8

type operation int

const (
	opNone operation = iota
	opCreateSurvey
	opCreateQRCode
	opReadStats
)

// Gate is the per-request quota decision: it denies writes that would exceed
// the plan limits, annotates stats reads near or over the response limit, and
// lazily persists time-based expiration. It never blocks feedback submission.
type Gate struct {
	svc     *subscription.Service
	counter *Counter
	now     func() time.Time
}

// NewGate creates a quota gate from the subscription service and usage counter.
func NewGate(svc *subscription.Service, counter *Counter) *Gate {
	return &Gate{
		svc:     svc,
		counter: counter,
		now:     time.Now,
	}
}

// WithClock overrides the time source; used by tests.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// Middleware returns the Fiber handler enforcing the gate. Mounted ahead of
// the authenticated API routes; requests that are not gated operations pass
// through untouched.
func (g *Gate) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		op := classify(c.Method(), c.Path())
		if op == opNone {
			return c.Next()
		}

		businessID := tenantcontext.GetBusinessID(c)
		if businessID == 0 {
			return c.Next()
		}

		sub, err := g.svc.Get(c.Context(), businessID)
		if err != nil {
			log.Printf("quota gate: subscription lookup failed for business %d: %v", businessID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "subscription lookup failed",
			})
		}

		now := g.now()
		if subscription.MaybeExpire(sub, now) {
			if err := g.svc.Expire(c.Context(), sub); err != nil {
				log.Printf("quota gate: failed to persist expiration for business %d: %v", businessID, err)
			}
		}
		if sub.Status == models.SubscriptionStatusExpired {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "subscription inactive",
			})
		}

		switch op {
		case opCreateSurvey:
			return g.checkCreate(c, businessID, "surveys", sub.UsageLimits.MaxSurveys, g.counter.Surveys)
		case opCreateQRCode:
			return g.checkCreate(c, businessID, "QR codes", sub.UsageLimits.MaxQRCodes, g.counter.QRCodes)
		case opReadStats:
			return g.annotateStats(c, businessID, sub.UsageLimits.MaxResponsesPerMonth, now)
		}
		return c.Next()
	}
}

// checkCreate denies a create operation once the counted usage reaches the
// plan limit. The unlimited sentinel is special-cased before any comparison.
func (g *Gate) checkCreate(c *fiber.Ctx, businessID uint, noun string, limit int, count func(uint) (int64, error)) error {
	if limit == models.UnlimitedLimit {
		return c.Next()
	}

	used, err := count(businessID)
	if err != nil {
		log.Printf("quota gate: usage count failed for business %d: %v", businessID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "usage count failed",
		})
	}

	if used >= int64(limit) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": fmt.Sprintf("your plan allows %d %s — upgrade required", limit, noun),
		})
	}
	return c.Next()
}

// annotateStats attaches usage annotations to a stats read. Reads are never
// blocked: respondents submitting feedback must not be refused, so the
// response count may legitimately run past the limit.
func (g *Gate) annotateStats(c *fiber.Ctx, businessID uint, limit int, now time.Time) error {
	if limit == models.UnlimitedLimit {
		return c.Next()
	}

	used, err := g.counter.ResponsesThisMonth(businessID, now)
	if err != nil {
		log.Printf("quota gate: response count failed for business %d: %v", businessID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "usage count failed",
		})
	}

	if float64(used) >= warnThreshold*float64(limit) {
		c.Set(HeaderQuotaWarning, fmt.Sprintf("%d of %d used", used, limit))
	}
	if used > int64(limit) {
		c.Set(HeaderQuotaExceeded, "true")
	}
	return c.Next()
}

// classify maps a request to the gated operation it represents, if any.
func classify(method, path string) operation {
	switch {
	case method == fiber.MethodPost && strings.HasSuffix(path, "/surveys"):
		return opCreateSurvey
	case method == fiber.MethodPost && strings.HasSuffix(path, "/qrcodes"):
		return opCreateQRCode
	case method == fiber.MethodGet && strings.HasSuffix(path, "/feedback/stats"):
		return opReadStats
	default:
		return opNone
	}
}
