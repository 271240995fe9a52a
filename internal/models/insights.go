package models

import "time"

type InsightsSummary struct {
	From              time.Time      `json:"from"`
	To                time.Time      `json:"to"`
	Revenue           float64        `json:"revenue"`
	Expenses          float64        `json:"expenses"`
	Profit            float64        `json:"profit"`
	AppointmentCounts map[string]int `json:"appointment_counts"`
	NewClients        int            `json:"new_clients"`
	ActiveCoupons     int            `json:"active_coupons"`
	RedeemedCoupons   int            `json:"redeemed_coupons"`
}

type TimeSeriesPoint struct {
	Bucket time.Time `json:"bucket"`
	Value  float64   `json:"value"`
}

type TimeSeries struct {
	Metric string            `json:"metric"`
	Bucket string            `json:"bucket"`
	Points []TimeSeriesPoint `json:"points"`
}

type ServiceStat struct {
	ServiceName  string  `json:"service_name"`
	Appointments int     `json:"appointments"`
	Revenue      float64 `json:"revenue"`
}
