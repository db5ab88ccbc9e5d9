package queries

// --- Crack Job Query Constants ---

const crackJobColumns = `
j.id, j.user_id, COALESCE(u.username, ''), j.algorithm, j.attack_type,
j.wordlist, j.wordlist2, j.max_length, j.charset, j.hybrid_suffix_length,
j.hybrid_suffix_charset, j.mask_pattern, j.rule_types, j.status, j.started_at,
j.finished_at, j.total_time_ms, j.attempts, j.attempts_per_sec, j.found_password`

const InsertCrackJobQuery = `
INSERT INTO crack_jobs (
    id, user_id, algorithm, attack_type, wordlist, wordlist2, max_length, charset,
    hybrid_suffix_length, hybrid_suffix_charset, mask_pattern, rule_types, status, started_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
`

const GetCrackJobByIDQuery = `
SELECT` + crackJobColumns + `
FROM crack_jobs j
LEFT JOIN users u ON u.id = j.user_id
WHERE j.id = $1
`

const ListCrackJobsQuery = `
SELECT` + crackJobColumns + `
FROM crack_jobs j
LEFT JOIN users u ON u.id = j.user_id
ORDER BY j.started_at DESC
`

// UpdateCrackJobStatusQuery only moves a job out of the expected current status
const UpdateCrackJobStatusQuery = `
UPDATE crack_jobs SET status = $1
WHERE id = $2 AND status = $3
`

// FinishCrackJobQuery writes a terminal status only while the job is still running
const FinishCrackJobQuery = `
UPDATE crack_jobs
SET status = $1, finished_at = $2, total_time_ms = $3, attempts = $4,
    attempts_per_sec = $5, found_password = $6
WHERE id = $7 AND status = 'running'
`

const DeleteCrackJobQuery = `DELETE FROM crack_jobs WHERE id = $1`

const DeleteAllCrackJobsQuery = `DELETE FROM crack_jobs`

// FailStaleCrackJobsQuery marks jobs left non-terminal by a previous process
const FailStaleCrackJobsQuery = `
UPDATE crack_jobs SET status = 'failed', finished_at = $1
WHERE status IN ('queued', 'running')
`

const ListOverdueCrackJobIDsQuery = `
SELECT id FROM crack_jobs
WHERE status = 'running' AND started_at < $1
ORDER BY started_at ASC
`
