package constants

// Static route constants
const (
	APIRoute          = "/api"
	WebhookBankRoute  = "/webhook/bank"
	RenewalsBatchPath = "/renewals/batch"
	OrdersRoute       = "/orders"
	QueueRoute        = "/queue"
)
