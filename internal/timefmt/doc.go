// Package timefmt provides the time formatting used in chat views:
// 12-hour clock strings, coarse relative ages, and lenient parsing of
// stored timestamps.
package timefmt
