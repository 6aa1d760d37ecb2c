package database

const (
	queryUpsertSession = `
		INSERT INTO sessions (id, reference_key, token_amount, referral_code, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			reference_key = excluded.reference_key,
			token_amount = excluded.token_amount,
			referral_code = excluded.referral_code,
			status = excluded.status,
			created_at = excluded.created_at`

	queryGetSession = `
		SELECT id, reference_key, token_amount, referral_code, status, created_at
		FROM sessions WHERE id = ?`

	// Conditional transition: only flips a session that is still pending,
	// so concurrent confirmation checks cannot both win.
	queryConfirmSession = `
		UPDATE sessions SET status = ? WHERE id = ? AND status = ?`

	queryGetSessionStatus = `
		SELECT status FROM sessions WHERE id = ?`

	queryUpsertReferral = `
		INSERT INTO referrals (code, name, contact_handle, clicks, conversions, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name,
			contact_handle = excluded.contact_handle,
			clicks = excluded.clicks,
			conversions = excluded.conversions,
			created_at = excluded.created_at`

	queryGetReferral = `
		SELECT code, name, contact_handle, clicks, conversions, created_at
		FROM referrals WHERE code = ?`

	queryIncrementClicks = `
		UPDATE referrals SET clicks = clicks + 1 WHERE code = ?`

	queryIncrementConversions = `
		UPDATE referrals SET conversions = conversions + 1 WHERE code = ?`
)
