package billing

// Config holds the Paddle billing configuration.
type Config struct {
	APIKey        string `env:"PADDLE_API_KEY,required"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET,required"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`

	// SuccessURL is where the hosted checkout redirects after payment.
	SuccessURL string `env:"PADDLE_CHECKOUT_SUCCESS_URL"`

	// PriceMap binds Paddle price ids to sellable plans, e.g.
	// PADDLE_PRICE_MAP="pri_abc=plus:monthly,pri_def=pro:annual".
	PriceMap map[string]string `env:"PADDLE_PRICE_MAP" envSeparator:"," envKeyValSeparator:"="`
}
