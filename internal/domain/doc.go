// Package domain models UN Sustainable Development Goal 14 (Life Below
// Water) indicator data as published by Our World in Data (OWID) and the UN
// SDG database.
//
// # Data Source
//
// Each dataset is a flat CSV export in the OWID "grapher" layout:
//
//	Entity,Code,Year,<indicator column>
//	Brazil,BRA,2017,26.35
//
// The Entity column carries a country or region name, Year an integer
// observation year, and the remaining columns numeric indicator values. The
// indicator column headers are long UN-style descriptions, e.g.
//
//	"14.6.1 - Progress by countries in the degree of implementation of
//	 international instruments aiming to combat illegal, unreported and
//	 unregulated fishing (level of implementation: 1 lowest to 5 highest)
//	 - ER_REG_UNFCIM"
//
// so every [DatasetConfig] carries a column-rename map from the original
// header to a short semantic field name ("implementation", "coverage", ...).
//
// # Defaulting Conventions
//
// Source rows are frequently incomplete: regions without a code, years typed
// as floats, indicator cells left blank. Normalization never rejects a row
// for a malformed field. Instead:
//
//   - a blank or whitespace-only Entity becomes the [UnknownEntity] sentinel,
//   - an unparsable Year becomes 0,
//   - an unparsable or absent indicator value becomes 0.0.
//
// Rejection happens one layer up, in the dataset loader, which drops records
// with a sentinel Entity or a Year outside the dataset's configured bounds.
// The 0.0 default deliberately conflates "legitimately zero" with
// "unparsable"; that matches the upstream dashboards this service feeds and
// is kept for compatibility.
//
// # Aggregates
//
// The range filter and the statistics helpers are pure functions over a
// record slice: they never mutate their input and return identical output
// for identical input, so they are safe to run on every filter-apply
// trigger without locking.
package domain
