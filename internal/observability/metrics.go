package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	admissionEventsTotal  *prometheus.CounterVec
	otpVerificationsTotal *prometheus.CounterVec
	paymentsVerifiedTotal *prometheus.CounterVec
	testSubmissionsTotal  *prometheus.CounterVec
	emailDeliveriesTotal  *prometheus.CounterVec
	uploadLatencySeconds  prometheus.Histogram
	uploadRejectedTotal   *prometheus.CounterVec
	liveClassJoinsTotal   prometheus.Counter
	activeTemporaryDrafts prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used across the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "route"})

		admissionEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admission_events_total",
			Help: "Admission funnel transitions by stage and outcome.",
		}, []string{"stage", "outcome"})

		otpVerificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otp_verifications_total",
			Help: "OTP verification attempts by outcome.",
		}, []string{"outcome"})

		paymentsVerifiedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payments_verified_total",
			Help: "Payment callback verifications by outcome.",
		}, []string{"outcome"})

		testSubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "test_submissions_total",
			Help: "Test submissions by result status.",
		}, []string{"status"})

		emailDeliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "email_deliveries_total",
			Help: "Transactional emails by template and outcome.",
		}, []string{"template", "outcome"})

		uploadLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "upload_duration_seconds",
			Help:    "Time spent validating and storing uploads.",
			Buckets: prometheus.DefBuckets,
		})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upload_rejected_total",
			Help: "Uploads rejected by reason.",
		}, []string{"reason"})

		liveClassJoinsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "live_class_joins_total",
			Help: "Student joins recorded for live classes.",
		})

		activeTemporaryDrafts = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "admission_drafts_active",
			Help: "Unexpired temporary admissions seen at the last count.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			admissionEventsTotal,
			otpVerificationsTotal,
			paymentsVerifiedTotal,
			testSubmissionsTotal,
			emailDeliveriesTotal,
			uploadLatencySeconds,
			uploadRejectedTotal,
			liveClassJoinsTotal,
			activeTemporaryDrafts,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// AdmissionEvents exposes the admission funnel counter.
func AdmissionEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return admissionEventsTotal
}

// OTPVerifications exposes the OTP outcome counter.
func OTPVerifications() *prometheus.CounterVec {
	RegisterMetrics()
	return otpVerificationsTotal
}

// PaymentsVerified exposes the payment verification counter.
func PaymentsVerified() *prometheus.CounterVec {
	RegisterMetrics()
	return paymentsVerifiedTotal
}

// TestSubmissions exposes the test submission counter.
func TestSubmissions() *prometheus.CounterVec {
	RegisterMetrics()
	return testSubmissionsTotal
}

// EmailDeliveries exposes the email delivery counter.
func EmailDeliveries() *prometheus.CounterVec {
	RegisterMetrics()
	return emailDeliveriesTotal
}

// UploadLatency exposes the upload latency histogram.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatencySeconds
}

// UploadRejected exposes the upload rejection counter.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

// LiveClassJoins exposes the live class join counter.
func LiveClassJoins() prometheus.Counter {
	RegisterMetrics()
	return liveClassJoinsTotal
}

// ActiveDrafts exposes the gauge of unexpired temporary admissions.
func ActiveDrafts() prometheus.Gauge {
	RegisterMetrics()
	return activeTemporaryDrafts
}
