package model

// Package model defines the domain data structures shared across the engine:
// locators, quality requests, format descriptors, jobs with explicit state
// transitions, the terminal run report, and the failure taxonomy.
