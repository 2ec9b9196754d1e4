package core

import "time"

const AVG_COUNT uint8 = 30

// TransferMetrics accumulates counters for the pixel paths of one engine and a
// rolling average of texture upload times over the last AVG_COUNT uploads.
type TransferMetrics struct {
	Blits         uint64
	PixelsCopied  uint64
	Uploads       uint64
	ScaledUploads uint64
	BytesUploaded uint64

	uploadAVGCounter uint8
	uploadMStimes    [AVG_COUNT]float64
	uploadSamples    uint8
}

// TransferStats is a read-only snapshot of TransferMetrics.
type TransferStats struct {
	Blits         uint64
	PixelsCopied  uint64
	Uploads       uint64
	ScaledUploads uint64
	BytesUploaded uint64
	UploadMSAvg   float64
}

func NewTransferMetrics() *TransferMetrics {
	return &TransferMetrics{}
}

func (m *TransferMetrics) RecordBlit(pixels int64) {
	m.Blits++
	if pixels > 0 {
		m.PixelsCopied += uint64(pixels)
	}
}

func (m *TransferMetrics) RecordUpload(elapsed time.Duration, bytes int, scaled bool) {
	m.Uploads++
	m.BytesUploaded += uint64(bytes)
	if scaled {
		m.ScaledUploads++
	}
	m.uploadMStimes[m.uploadAVGCounter] = float64(elapsed.Microseconds()) / 1000.0
	m.uploadAVGCounter++
	m.uploadAVGCounter %= AVG_COUNT
	if m.uploadSamples < AVG_COUNT {
		m.uploadSamples++
	}
}

// UploadMSAvg is the average upload time in milliseconds over the recorded window.
func (m *TransferMetrics) UploadMSAvg() float64 {
	if m.uploadSamples == 0 {
		return 0
	}
	sum := 0.0
	for i := uint8(0); i < m.uploadSamples; i++ {
		sum += m.uploadMStimes[i]
	}
	return sum / float64(m.uploadSamples)
}

func (m *TransferMetrics) Snapshot() TransferStats {
	return TransferStats{
		Blits:         m.Blits,
		PixelsCopied:  m.PixelsCopied,
		Uploads:       m.Uploads,
		ScaledUploads: m.ScaledUploads,
		BytesUploaded: m.BytesUploaded,
		UploadMSAvg:   m.UploadMSAvg(),
	}
}
