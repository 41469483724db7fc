package store

// schemaSQL contains the job table schema initialization SQL.
const schemaSQL = `
    DEFINE TABLE IF NOT EXISTS job SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS job_id ON job TYPE string;
    DEFINE FIELD IF NOT EXISTS athlete_name ON job TYPE string;
    DEFINE FIELD IF NOT EXISTS goals ON job TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS status ON job TYPE string ASSERT $value IN ["processing", "completed", "failed"];
    DEFINE FIELD IF NOT EXISTS message ON job TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS artifact_path ON job TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created_at ON job TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS updated_at ON job TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS job_status ON job FIELDS status;
    DEFINE INDEX IF NOT EXISTS job_updated ON job FIELDS updated_at;
`
