// Package notifier posts liquidation alerts to a webhook.
package notifier

import (
	"context"
	"net/http"

	"mrgnwatch/core"
	"mrgnwatch/pkg/resthttp"

	"github.com/fox-one/pkg/logger"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

type notifier struct {
	client  *resty.Client
	webhook string
}

// New new webhook notifier. Without a webhook alerts are only logged.
func New(client *resty.Client, webhook string) core.INotifier {
	return &notifier{
		client:  client,
		webhook: webhook,
	}
}

func (n *notifier) Notify(ctx context.Context, alert *core.Alert) error {
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"account": alert.Account.String(),
		"margin":  alert.Margin.String(),
	})

	log.Warnln("account is liquidatable")

	if n.webhook == "" {
		return nil
	}

	request := resthttp.Request(ctx, n.client)
	if alert.Signature != "" {
		request = resthttp.WithRequestID(ctx, n.client, alert.Signature)
	}

	if _, err := resthttp.Execute(request, http.MethodPost, n.webhook, alert, nil); err != nil {
		log.WithError(err).Errorln("post alert")
		return err
	}

	return nil
}
