package redisx

import "time"

const (
	// Rendered invoice cache: invoice:html:{order_id} -> html
	KeyInvoiceHTML = "invoice:html:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLInvoiceCache = 10 * time.Minute
	TTLDedup        = 48 * time.Hour
)
