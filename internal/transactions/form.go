package transactions

import (
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FormLine is one raw cart line as submitted.
type FormLine struct {
	ProductID string
	Quantity  string
	Price     string
}

// CheckoutForm is the raw checkout form, kept so a rejected submission can
// be re-rendered with the operator's input.
type CheckoutForm struct {
	Lines           []FormLine
	CustomerName    string
	CustomerEmail   string
	DiscountID      string
	PaymentMethodID string
	AmountTendered  string
	ChangeDue       string
	TotalAmount     string
	IdempotencyKey  string
}

var lineField = regexp.MustCompile(`^items\[(\d+)\]\[(product_id|quantity|price)\]$`)

// ParseCheckoutForm reads indexed items[N][field] values. Forms that post
// parallel product_id/quantity/price arrays are accepted as well.
func ParseCheckoutForm(values url.Values) CheckoutForm {
	f := CheckoutForm{
		CustomerName:    values.Get("customer_name"),
		CustomerEmail:   values.Get("customer_email"),
		DiscountID:      values.Get("discount_id"),
		PaymentMethodID: values.Get("payment_method_id"),
		AmountTendered:  values.Get("amount_tendered"),
		ChangeDue:       values.Get("change_due"),
		TotalAmount:     values.Get("total_amount"),
		IdempotencyKey:  values.Get("idempotency_key"),
	}

	indexed := map[int]*FormLine{}
	for key, vals := range values {
		m := lineField.FindStringSubmatch(key)
		if m == nil || len(vals) == 0 {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		line, ok := indexed[idx]
		if !ok {
			line = &FormLine{}
			indexed[idx] = line
		}
		switch m[2] {
		case "product_id":
			line.ProductID = vals[0]
		case "quantity":
			line.Quantity = vals[0]
		case "price":
			line.Price = vals[0]
		}
	}

	if len(indexed) > 0 {
		order := make([]int, 0, len(indexed))
		for idx := range indexed {
			order = append(order, idx)
		}
		sort.Ints(order)
		for _, idx := range order {
			f.Lines = append(f.Lines, *indexed[idx])
		}
		return f
	}

	ids, qtys, prices := values["product_id"], values["quantity"], values["price"]
	for i := range ids {
		f.Lines = append(f.Lines, FormLine{
			ProductID: ids[i],
			Quantity:  at(qtys, i),
			Price:     at(prices, i),
		})
	}
	return f
}

// Request converts the raw form into a CreateRequest. Values that do not
// parse are reported against their field; the request is still returned so
// validation can collect the remaining errors.
func (f CheckoutForm) Request() (CreateRequest, *ValidationError) {
	ve := newValidationError()
	req := CreateRequest{
		CustomerName:   f.CustomerName,
		CustomerEmail:  f.CustomerEmail,
		IdempotencyKey: f.IdempotencyKey,
	}

	for _, l := range f.Lines {
		if blankLine(l) {
			continue
		}
		idx := len(req.Items)
		var line LineInput
		if id, err := strconv.ParseInt(strings.TrimSpace(l.ProductID), 10, 64); err == nil {
			line.ProductID = id
		} else if strings.TrimSpace(l.ProductID) != "" {
			ve.Add(lineKey(idx, "product_id"), "Product is invalid")
		}
		if q, err := strconv.Atoi(strings.TrimSpace(l.Quantity)); err == nil {
			line.Quantity = q
		} else if strings.TrimSpace(l.Quantity) != "" {
			ve.Add(lineKey(idx, "quantity"), "Quantity must be a whole number")
		}
		line.Price = parseMoney(ve, lineKey(idx, "price"), "Price", l.Price)
		req.Items = append(req.Items, line)
	}

	if raw := strings.TrimSpace(f.DiscountID); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			req.DiscountID = &id
		} else {
			ve.Add("discount_id", "Discount is invalid")
		}
	}
	if raw := strings.TrimSpace(f.PaymentMethodID); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			req.PaymentMethodID = id
		} else {
			ve.Add("payment_method_id", "Payment method is invalid")
		}
	}
	req.AmountTendered = parseMoney(ve, "amount_tendered", "Amount tendered", f.AmountTendered)
	req.ChangeDue = parseMoney(ve, "change_due", "Change due", f.ChangeDue)
	req.TotalAmount = parseMoney(ve, "total_amount", "Total amount", f.TotalAmount)
	return req, ve
}

// FormFromRequest rebuilds the raw form from a decoded request.
func FormFromRequest(req CreateRequest) CheckoutForm {
	f := CheckoutForm{
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		PaymentMethodID: optionalID(req.PaymentMethodID),
		AmountTendered:  req.AmountTendered.String(),
		ChangeDue:       req.ChangeDue.String(),
		TotalAmount:     req.TotalAmount.String(),
		IdempotencyKey:  req.IdempotencyKey,
	}
	if req.DiscountID != nil {
		f.DiscountID = strconv.FormatInt(*req.DiscountID, 10)
	}
	for _, l := range req.Items {
		f.Lines = append(f.Lines, FormLine{
			ProductID: optionalID(l.ProductID),
			Quantity:  strconv.Itoa(l.Quantity),
			Price:     l.Price.String(),
		})
	}
	return f
}

func parseMoney(ve *ValidationError, key, label, raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		ve.Add(key, label+" must be a number")
		return decimal.Zero
	}
	return d
}

func blankLine(l FormLine) bool {
	return strings.TrimSpace(l.ProductID) == "" && strings.TrimSpace(l.Quantity) == "" && strings.TrimSpace(l.Price) == ""
}

func optionalID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func at(vals []string, i int) string {
	if i < len(vals) {
		return vals[i]
	}
	return ""
}
