package events

// TopicShippingRatesReplaced fires after a producer's override table is
// atomically replaced via bulk import.
const TopicShippingRatesReplaced = "shipping.rates.replaced"
