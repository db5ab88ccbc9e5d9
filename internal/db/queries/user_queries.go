package queries

// --- User Query Constants ---

const userColumns = `id, username, email, hash, algorithm, salt, params, created_at`

const CreateUserQuery = `
INSERT INTO users (username, email, hash, algorithm, salt, params)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at
`

const GetUserByIDQuery = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

const GetUserByUsernameQuery = `SELECT ` + userColumns + ` FROM users WHERE username = $1`

const ListUsersQuery = `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

const DeleteUserQuery = `DELETE FROM users WHERE id = $1`
