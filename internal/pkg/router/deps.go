package router

import (
	"sync"

	"github.com/scanvey/scanvey/app/controllers"
	"github.com/scanvey/scanvey/app/models"
	"github.com/scanvey/scanvey/app/repository"
	"github.com/scanvey/scanvey/internal/pkg/billing"
	"github.com/scanvey/scanvey/internal/pkg/database"
	"github.com/scanvey/scanvey/internal/pkg/env"
	"github.com/scanvey/scanvey/internal/pkg/plans"
	"github.com/scanvey/scanvey/internal/pkg/quota"
	"github.com/scanvey/scanvey/internal/pkg/subscription"
)

// controllerSet holds the wired controllers and the quota gate shared by the
// http and api routers.
type controllerSet struct {
	auth          *controllers.AuthController
	surveys       *controllers.SurveyController
	qrCodes       *controllers.QRCodeController
	feedback      *controllers.FeedbackController
	subscriptions *controllers.SubscriptionController
	gate          *quota.Gate
}

var (
	depsOnce sync.Once
	depsSet  *controllerSet
)

// deps builds the full dependency graph once: plan catalog from config,
// subscription service, usage counter, quota gate, Stripe client and webhook
// reconciler, then the controllers on top.
func deps() *controllerSet {
	depsOnce.Do(func() {
		repos := repository.GetGlobalFactory().GetRepositories()

		catalog := plans.NewCatalog(plans.StripePriceIDs{
			models.PlanBasic: env.GetEnv("STRIPE_PRICE_BASIC", ""),
			models.PlanPro:   env.GetEnv("STRIPE_PRICE_PRO", ""),
		})
		svc := subscription.NewService(repos.Subscription, repos.Payment, catalog)
		counter := quota.NewCounter(repos.Survey, repos.QRCode, repos.Feedback)
		client := billing.NewClientFromEnv()
		reconciler := billing.NewReconciler(repository.NewTxRunner(database.GetDB()), catalog)

		depsSet = &controllerSet{
			auth:          controllers.NewAuthController(repos, catalog),
			surveys:       controllers.NewSurveyController(repos),
			qrCodes:       controllers.NewQRCodeController(repos),
			feedback:      controllers.NewFeedbackController(repos, counter),
			subscriptions: controllers.NewSubscriptionController(repos, svc, catalog, counter, client, reconciler),
			gate:          quota.NewGate(svc, counter),
		}
	})
	return depsSet
}
