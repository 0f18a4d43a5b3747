package quota

import (
	"time"

	"github.com/scanvey/scanvey/app/repository"
)

// Counter answers "how much of each resource does this business use right
// now". Counts are re-queried on every check; with create operations this
// infrequent, correctness beats caching.
type Counter struct {
	surveys  repository.SurveyRepository
	qrCodes  repository.QRCodeRepository
	feedback repository.FeedbackRepository
}

// NewCounter creates a usage counter over the resource repositories.
func NewCounter(surveys repository.SurveyRepository, qrCodes repository.QRCodeRepository, feedback repository.FeedbackRepository) *Counter {
	return &Counter{
		surveys:  surveys,
		qrCodes:  qrCodes,
		feedback: feedback,
	}
}

// Surveys counts all surveys owned by the business, active or not.
func (c *Counter) Surveys(businessID uint) (int64, error) {
	return c.surveys.CountByBusinessID(businessID)
}

// QRCodes counts all QR codes owned by the business.
func (c *Counter) QRCodes(businessID uint) (int64, error) {
	return c.qrCodes.CountByBusinessID(businessID)
}

// ResponsesThisMonth counts feedback entries submitted since the first
// instant of the current calendar month, server-local time.
func (c *Counter) ResponsesThisMonth(businessID uint, now time.Time) (int64, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return c.feedback.CountByBusinessIDSince(businessID, monthStart)
}
