// Package finsim simulates personal finance trajectories over multi decade
// horizons, across several countries and currencies.
//
// The core functionalities include:
//   - Investment Ledgers: lots bought into investment vehicles, grown every
//     simulated year, sold first in first out and taxed under capital gains
//     or exit tax rules (package ledger).
//   - Tax Rulesets: per country JSON rules describing investment types and
//     their taxation (package rules), and the declarations those rules
//     produce (package revenue).
//   - Valuation: present value of every yearly metric, deflated by the
//     inflation of the residence country or of the country the money comes
//     from (package valuation).
//   - Attribution: breakdown of yearly totals by human readable source, for
//     reporting (package attribution).
//
// This package holds the DataRow, the per year record every stage writes to.
// It serves as the foundational logic for the `finsim` command-line tool.
package finsim
