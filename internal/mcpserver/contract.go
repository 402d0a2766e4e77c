package mcpserver

// BatchFormatContract describes the CSV batch file format that automated
// consumers should follow when composing imports.
const BatchFormatContract = `# Vesica Batch File Contract

Batch imports are CSV files with a header row. Column names are
case-sensitive and must match exactly; unrecognized columns are ignored.

## Columns

| column | required | meaning |
|---|---|---|
| patient_id | yes | patient identifier, whitespace is trimmed |
| measurement_time | yes | format 2006-01-02 15:04 (e.g. 2024-01-15 10:30), nothing else is accepted |
| length_cm | yes | bladder length in cm, > 0 |
| width_cm | yes | bladder width in cm, > 0 |
| depth_cm | yes | bladder depth in cm, > 0 |
| voided_volume_ml | no | voided volume in ml; blank or absent means none |
| context | no | pre_void, post_void, or other; blank or absent defaults to unknown |
| notes | no | free text |

## Rules

1. The estimated volume is always derived from the three dimensions with
   the ellipsoid formula. Never include a calculated_volume_ml column; it
   is ignored if present.
2. Rows with a non-positive dimension, a malformed time, or a non-numeric
   field are skipped and reported. The rest of the file still imports.
3. A file missing a required column imports nothing; every row is
   reported as rejected.
`
