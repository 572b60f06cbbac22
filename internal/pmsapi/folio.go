package pmsapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/iliyamo/hotel-pms-console/internal/model"
)

func (c *Client) FolioByBooking(ctx context.Context, bookingID string) (model.Folio, error) {
	var out model.Folio
	err := c.get(ctx, "/folio/booking/"+url.PathEscape(bookingID), nil, &out)
	return out, err
}

func (c *Client) Folio(ctx context.Context, id string) (model.Folio, error) {
	var out model.Folio
	err := c.get(ctx, "/folio/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) PostCharge(ctx context.Context, folioID string, in model.NewCharge) error {
	return c.send(ctx, http.MethodPost, "/folio/"+url.PathEscape(folioID)+"/charge", in, nil)
}

func (c *Client) PostPayment(ctx context.Context, folioID string, in model.NewPayment) error {
	return c.send(ctx, http.MethodPost, "/folio/"+url.PathEscape(folioID)+"/payment", in, nil)
}

func (c *Client) VoidCharge(ctx context.Context, folioID, chargeID, reason string) error {
	path := "/folio/" + url.PathEscape(folioID) + "/void-charge/" + url.PathEscape(chargeID)
	return c.send(ctx, http.MethodPost, path, model.VoidRequest{Reason: reason}, nil)
}

func (c *Client) VoidPayment(ctx context.Context, paymentID, reason string) error {
	return c.send(ctx, http.MethodPost, "/payment/"+url.PathEscape(paymentID)+"/void", model.VoidRequest{Reason: reason}, nil)
}

func (c *Client) TransferCharges(ctx context.Context, in model.FolioTransfer) error {
	return c.send(ctx, http.MethodPost, "/folio/transfer", in, nil)
}

// FolioExcel downloads the folio as a spreadsheet.  The content type is
// whatever the PMS reported.
func (c *Client) FolioExcel(ctx context.Context, folioID string) ([]byte, string, error) {
	return c.getRaw(ctx, "/folio/"+url.PathEscape(folioID)+"/excel")
}
