// Package paramtype implements the parameter-type detection and value
// preprocessing rules the core executor delegates to. Both functions are
// pure and total over the shapes the executor can receive, kept in their
// own leaf package with no dependency on the driver, pool, or executor.
//
// Composite-value preprocessing (slices, maps, structs) falls back to
// canonical JSON encoding. This is a lossy convenience, not a type mapping:
// a column that actually expects structured JSON sees well-formed JSON: a
// VARCHAR column sees the literal JSON text. No attempt is made to infer the
// destination column's type.
//
// A value satisfying stringCaster — anything with a String() string
// method, including shopspring/decimal.Decimal — binds as that string form
// rather than falling through to JSON encoding. This mirrors the driver's
// result-shaping side: DECIMAL/NEWDECIMAL columns come back as
// decimal.Decimal, and Preprocess lets one flow straight back out as a bound
// parameter without a type-specific case here.
package paramtype
