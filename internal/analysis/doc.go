// Package analysis inspects recorded sessions after the fact.
//
//   - [CadenceSpectrum]: power spectrum of the spin rate, to find the
//     player's turning rhythm and how steady it is
//   - [Crossings]: times at which a series rises through a threshold
//   - [NewPortrait] and [PortraitToASCII]: two recorded fields plotted
//     against each other, e.g. mastery against shaping progress
//
// # Cadence
//
// A steady player shows a single sharp peak:
//
//	sp := analysis.CadenceSpectrum(result.Series(func(s sim.Sample) float64 { return s.Spin }), dt)
//	hz, _ := sp.Dominant()
package analysis
